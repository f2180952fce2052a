package utils

import (
	"database/sql"
	"time"
)

func ToNullString(str string) sql.NullString {
	if str == "" {
		return sql.NullString{
			String: str,
			Valid:  false,
		}
	}
	return sql.NullString{
		String: str,
		Valid:  true,
	}
}

func ToNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{
			Time:  t,
			Valid: false,
		}
	}
	return sql.NullTime{
		Time:  t,
		Valid: true,
	}
}
