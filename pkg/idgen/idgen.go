/*
 * @Description: 公共 ID 生成与解码服务
 * @Author: 张宇轩
 * @Date: 2025-09-03 15:20:08
 * @LastEditTime: 2025-11-02 21:17:36
 * @LastEditors: 张宇轩
 */
package idgen

import (
	"fmt"

	"github.com/sqids/sqids-go"
)

// sqidsEncoder 是用于生成和解码短 ID 的 Sqids 编码器实例。
var sqidsEncoder *sqids.Sqids

// EntityType 定义了不同实体在生成公共 ID 时的类型标识。
const (
	EntityTypeUser  uint64 = 1 // 用户实体的类型标识
	EntityTypeImage uint64 = 2 // 图片实体的类型标识
	EntityTypeTag   uint64 = 3 // 标签实体的类型标识
)

// InitSqidsEncoder 初始化 Sqids 编码器
func InitSqidsEncoder() error {
	s, err := sqids.New(
		sqids.Options{
			MinLength: 4,
		},
	)
	if err != nil {
		return fmt.Errorf("初始化 Sqids 编码器失败: %w", err)
	}
	sqidsEncoder = s
	return nil
}

// GeneratePublicID 将数据库自增 ID 与实体类型编码为对外暴露的不透明 ID。
func GeneratePublicID(dbID uint, entityType uint64) (string, error) {
	if sqidsEncoder == nil {
		return "", fmt.Errorf("Sqids 编码器未初始化")
	}

	id, err := sqidsEncoder.Encode([]uint64{uint64(dbID), entityType})
	if err != nil {
		return "", fmt.Errorf("编码公共ID失败: %w", err)
	}
	return id, nil
}

// DecodePublicID 解码公共 ID
func DecodePublicID(publicID string) (dbID uint, entityType uint64, err error) {
	if sqidsEncoder == nil {
		return 0, 0, fmt.Errorf("Sqids 编码器未初始化")
	}

	numbers := sqidsEncoder.Decode(publicID)
	if len(numbers) != 2 {
		return 0, 0, fmt.Errorf("无法从公共ID解码出预期数量的数字(期望2个，得到%d个)", len(numbers))
	}
	return uint(numbers[0]), numbers[1], nil
}

// DecodePublicIDOfType 解码公共 ID 并校验实体类型是否匹配。
func DecodePublicIDOfType(publicID string, wantType uint64) (uint, error) {
	dbID, entityType, err := DecodePublicID(publicID)
	if err != nil {
		return 0, err
	}
	if entityType != wantType {
		return 0, fmt.Errorf("公共ID '%s' 的实体类型不匹配(期望%d，得到%d)", publicID, wantType, entityType)
	}
	return dbID, nil
}
