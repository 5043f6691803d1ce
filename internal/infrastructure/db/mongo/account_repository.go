package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

const accountCollection = "auth_users"

// AccountRepository implements ports.AccountRepository on the auth_users
// collection. Emails are unique.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

type mongoAccount struct {
	ID            string `bson:"_id"`
	Email         string `bson:"email"`
	Name          string `bson:"name"`
	PasswordHash  string `bson:"password_hash"`
	Role          string `bson:"role"`
	Phone         string `bson:"phone,omitempty"`
	Address       string `bson:"address,omitempty"`
	Qualification string `bson:"qualification,omitempty"`
	CreatedAt     int64  `bson:"created_at"`
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAccount{
		ID:            account.ID,
		Email:         account.Email,
		Name:          account.Name,
		PasswordHash:  account.PasswordHash,
		Role:          string(account.Role),
		Phone:         account.Phone,
		Address:       account.Address,
		Qualification: account.Qualification,
		CreatedAt:     account.CreatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return toAccount(doc), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return toAccount(doc), nil
}

// EnsureIndexes creates the unique email index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func toAccount(doc mongoAccount) *domain.Account {
	return &domain.Account{
		ID:            doc.ID,
		Email:         doc.Email,
		Name:          doc.Name,
		PasswordHash:  doc.PasswordHash,
		Role:          domain.Role(doc.Role),
		Phone:         doc.Phone,
		Address:       doc.Address,
		Qualification: doc.Qualification,
		CreatedAt:     unixToTime(doc.CreatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
