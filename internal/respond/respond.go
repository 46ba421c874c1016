package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
)

const maxBodyBytes = 1 << 20

var ErrMultipleValues = errors.New("body must contain a single JSON object")

// DecodeJSON 限制请求体大小并严格解析 JSON
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("body must not be empty")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrMultipleValues
	}
	return nil
}

func JSON(w http.ResponseWriter, logger *log.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Printf("json encode error: %v", err)
	}
}

func Error(w http.ResponseWriter, logger *log.Logger, status int, message string) {
	JSON(w, logger, status, map[string]string{"error": message})
}

func Message(w http.ResponseWriter, logger *log.Logger, status int, message string) {
	JSON(w, logger, status, map[string]string{"message": message})
}

// Internal 记录真实原因，只向客户端返回通用信息
func Internal(w http.ResponseWriter, logger *log.Logger, op string, err error) {
	logger.Printf("%s: %v", op, err)
	Error(w, logger, http.StatusInternalServerError, "internal server error")
}

// Unauthorized 附带 WWW-Authenticate 头，提示客户端使用 Bearer 方案
func Unauthorized(w http.ResponseWriter, logger *log.Logger, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Error(w, logger, http.StatusUnauthorized, message)
}
