/*
 * @Description: 启动期建表迁移
 * @Author: 张宇轩
 * @Date: 2025-09-04 15:02:17
 * @LastEditTime: 2025-12-15 20:30:09
 * @LastEditors: 张宇轩
 */
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// Migrate 在启动时创建缺失的表与索引。
// DDL 按方言生成自增主键片段，其余语法取三种数据库的公共子集。
// 建表失败是致命错误；索引已存在（MySQL 不支持 IF NOT EXISTS）只记警告。
func Migrate(ctx context.Context, db *sql.DB, driverName string) error {
	var pk string
	switch driverName {
	case "mysql":
		pk = "BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"
	case "postgres":
		pk = "BIGSERIAL PRIMARY KEY"
	default: // sqlite3
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	tables := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			username VARCHAR(64) NOT NULL,
			password VARCHAR(128) NOT NULL,
			email VARCHAR(128) NOT NULL DEFAULT '',
			nickname VARCHAR(64) NOT NULL DEFAULT '',
			avatar VARCHAR(255) NOT NULL DEFAULT '',
			status INTEGER NOT NULL DEFAULT 1,
			baidu_api_key VARCHAR(128) NOT NULL DEFAULT '',
			baidu_secret_key VARCHAR(128) NOT NULL DEFAULT '',
			create_time TIMESTAMP NOT NULL,
			update_time TIMESTAMP NOT NULL
		)`, pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS images (
			id %s,
			user_id BIGINT NOT NULL,
			title VARCHAR(255) NOT NULL DEFAULT '',
			description TEXT,
			file_name VARCHAR(255) NOT NULL,
			file_path VARCHAR(255) NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			file_type VARCHAR(64) NOT NULL DEFAULT '',
			width INTEGER NOT NULL DEFAULT 0,
			height INTEGER NOT NULL DEFAULT 0,
			thumbnail_path VARCHAR(255) NOT NULL DEFAULT '',
			md5 VARCHAR(32) NOT NULL DEFAULT '',
			upload_time TIMESTAMP NOT NULL,
			shoot_time TIMESTAMP,
			location VARCHAR(64) NOT NULL DEFAULT '',
			device VARCHAR(64) NOT NULL DEFAULT '',
			camera_model VARCHAR(64) NOT NULL DEFAULT '',
			focal_length VARCHAR(32) NOT NULL DEFAULT '',
			aperture VARCHAR(32) NOT NULL DEFAULT '',
			iso VARCHAR(32) NOT NULL DEFAULT '',
			view_count INTEGER NOT NULL DEFAULT 0,
			status INTEGER NOT NULL DEFAULT 1,
			create_time TIMESTAMP NOT NULL,
			update_time TIMESTAMP NOT NULL
		)`, pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tags (
			id %s,
			user_id BIGINT NOT NULL DEFAULT 0,
			tag_name VARCHAR(64) NOT NULL,
			tag_type INTEGER NOT NULL DEFAULT 2,
			use_count INTEGER NOT NULL DEFAULT 0,
			create_time TIMESTAMP NOT NULL
		)`, pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS image_tags (
			id %s,
			image_id BIGINT NOT NULL,
			tag_id BIGINT NOT NULL,
			confidence DECIMAL(5,2),
			create_time TIMESTAMP NOT NULL
		)`, pk),
	}

	indexes := []string{
		`CREATE UNIQUE INDEX uk_users_username ON users (username)`,
		`CREATE INDEX idx_images_user_status ON images (user_id, status)`,
		// 名称唯一性按 (user_id, tag_name) 作用域约束而不是全局约束
		`CREATE UNIQUE INDEX uk_tags_scope_name ON tags (user_id, tag_name)`,
		`CREATE UNIQUE INDEX uk_image_tags_pair ON image_tags (image_id, tag_id)`,
		`CREATE INDEX idx_image_tags_tag ON image_tags (tag_id)`,
	}

	log.Println("⚡ 开始数据库表结构迁移...")
	for _, stmt := range tables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("执行建表语句失败: %w", err)
		}
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// 索引重复创建时各数据库报错不一，统一降级为警告
			log.Printf("提示: 创建索引跳过 (%v)", err)
		}
	}
	log.Println("✅ 数据库表结构迁移成功")
	return nil
}
