package mysql

import (
	"time"

	"hoodlink/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Options struct {
	DSN     string
	MaxOpen int
	MaxIdle int
}

// InitDB 打开连接池；TranslateError 让唯一键冲突以 gorm.ErrDuplicatedKey 返回
func InitDB(opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(opts.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().Local() },
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpen)
	}
	if opts.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdle)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// AutoMigrate 自动建表（开发阶段使用）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Community{},
		&model.CommunityMember{},
		&model.JoinRequest{},
		&model.Announcement{},
		&model.Event{},
		&model.EventParticipant{},
		&model.Post{},
		&model.Comment{},
		&model.Report{},
		&model.CheckIn{},
		&model.CheckInResponse{},
		&model.OutboxEvent{},
	)
}

func clauseForUpdate() clause.Locking { return clause.Locking{Strength: "UPDATE"} }

// lockCommunity 在事务内对社区行加 FOR UPDATE，串行化同一社区的置顶/入社申请等写入
func lockCommunity(tx *gorm.DB, communityID string) error {
	var c model.Community
	return tx.Clauses(clauseForUpdate()).Select("id").Where("id = ?", communityID).First(&c).Error
}
