package todo

import (
	"database/sql"
	"strconv"
)

func nullableString(value *string) sql.NullString {
	// 将可选字符串转换为 SQL 可空类型
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullableBool(value *bool) sql.NullBool {
	// 将可选布尔转换为 SQL 可空类型
	if value == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *value, Valid: true}
}

// nullableOwner 空 owner 对应 NULL；非数字 owner 视为不存在的用户
func nullableOwner(owner string) (sql.NullInt64, bool) {
	if owner == "" {
		return sql.NullInt64{}, true
	}
	id, ok := parseSerial(owner)
	if !ok {
		return sql.NullInt64{}, false
	}
	return sql.NullInt64{Int64: id, Valid: true}, true
}

func parseSerial(value string) (int64, bool) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func formatSerial(id int64) string {
	return strconv.FormatInt(id, 10)
}

func ownerString(owner sql.NullInt64) string {
	if !owner.Valid {
		return ""
	}
	return formatSerial(owner.Int64)
}
