/*
 * @Description: 仓储层方言辅助
 * @Author: 张宇轩
 * @Date: 2025-09-04 16:10:33
 * @LastEditTime: 2025-12-15 21:02:51
 * @LastEditors: 张宇轩
 */
package repo

import (
	"fmt"
	"strings"
)

// rebind 将 '?' 占位符改写为 PostgreSQL 的 '$n' 形式。
// MySQL 与 SQLite 原样返回。
func rebind(driverName, query string) string {
	if driverName != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(fmt.Sprintf("$%d", n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isUniqueViolation 判断错误是否为唯一约束冲突。
// 三种驱动的错误类型各不相同，这里统一用报错文本识别。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed") ||
		strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
