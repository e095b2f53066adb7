package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kgouthamk/my-first-agent/internal/domain"
)

const (
	skTurn      = "TURN"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by TurnLog.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// TurnLog writes completed turns to a DynamoDB table for auditing. Nothing
// reads the table back into a conversation.
type TurnLog struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a TurnLog for tableName.
func New(api dynamodbAPI, tableName string) (*TurnLog, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &TurnLog{api: api, tableName: tableName, now: time.Now}, nil
}

// turnPK returns the DynamoDB partition key for a turn.
func turnPK(id string) string {
	return "TURN#" + id
}

// SaveTurn persists rec. Records are write-once; a duplicate ID is an error.
// A zero CreatedAt or TTL is filled from the current time.
func (l *TurnLog) SaveTurn(ctx context.Context, rec domain.TurnRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("repository: SaveTurn: record ID is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = l.now().UTC()
	}
	if rec.TTL == 0 {
		rec.TTL = rec.CreatedAt.Add(ttlDuration).Unix()
	}

	_, err := l.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                turnItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveTurn: %w", err)
	}
	return nil
}

func turnItem(rec domain.TurnRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: turnPK(rec.ID)},
		"SK":        &types.AttributeValueMemberS{Value: skTurn},
		"turnId":    &types.AttributeValueMemberS{Value: rec.ID},
		"channel":   &types.AttributeValueMemberS{Value: rec.Channel},
		"message":   &types.AttributeValueMemberS{Value: rec.Message},
		"reply":     &types.AttributeValueMemberS{Value: rec.Reply},
		"toolCalls": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", rec.ToolCalls)},
		"createdAt": &types.AttributeValueMemberS{Value: rec.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", rec.TTL)},
	}
}
