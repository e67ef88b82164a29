/*
 * @Description: 用户仓储的 database/sql 实现
 * @Author: 张宇轩
 * @Date: 2025-09-04 18:02:50
 * @LastEditTime: 2025-10-19 12:30:41
 * @LastEditors: 张宇轩
 */
package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/domain/repository"
)

const userColumns = `id, username, password, email, nickname, avatar, status,
	baidu_api_key, baidu_secret_key, create_time, update_time`

type userRepo struct {
	db     *sql.DB
	driver string
}

// NewUserRepository 是用户仓储的构造函数
func NewUserRepository(db *sql.DB, driverName string) repository.UserRepository {
	return &userRepo{db: db, driver: driverName}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := rebind(r.driver, `INSERT INTO users
		(username, password, email, nickname, avatar, status, baidu_api_key, baidu_secret_key, create_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	args := []any{
		user.Username, user.Password, user.Email, user.Nickname, user.Avatar,
		user.Status, user.BaiduAPIKey, user.BaiduSecretKey, user.CreatedAt, user.UpdatedAt,
	}

	if r.driver == "postgres" {
		var id uint
		err := r.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: 用户名 '%s'", constant.ErrConflict, user.Username)
		}
		if err != nil {
			return fmt.Errorf("插入用户失败: %w", err)
		}
		user.ID = id
		return nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: 用户名 '%s'", constant.ErrConflict, user.Username)
	}
	if err != nil {
		return fmt.Errorf("插入用户失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取用户自增ID失败: %w", err)
	}
	user.ID = uint(id)
	return nil
}

func (r *userRepo) scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Password, &user.Email, &user.Nickname, &user.Avatar,
		&user.Status, &user.BaiduAPIKey, &user.BaiduSecretKey, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	query := rebind(r.driver, `SELECT `+userColumns+` FROM users WHERE id = ?`)
	user, err := r.scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: 用户 %d", constant.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return user, nil
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := rebind(r.driver, `SELECT `+userColumns+` FROM users WHERE username = ?`)
	user, err := r.scanUser(r.db.QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: 用户 '%s'", constant.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	query := rebind(r.driver, `UPDATE users SET
		email = ?, nickname = ?, avatar = ?, status = ?, password = ?,
		baidu_api_key = ?, baidu_secret_key = ?, update_time = ?
		WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query,
		user.Email, user.Nickname, user.Avatar, user.Status, user.Password,
		user.BaiduAPIKey, user.BaiduSecretKey, user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("更新用户失败: %w", err)
	}
	return nil
}
