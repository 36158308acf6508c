package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/model"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrNoFieldsToUpdate  = errors.New("no account fields to update")
)

// AccountRepository defines the interface for account-related database operations.
type AccountRepository interface {
	// CreateAccount inserts account if neither its email nor its username is taken.
	// It returns ErrDuplicateEmail or ErrDuplicateUsername on conflict.
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)

	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByConfirmationCode(ctx context.Context, code string) (*model.Account, error)

	// UpdateAccount sets the non-nil fields of params and returns the updated account.
	UpdateAccount(ctx context.Context, id string, params UpdateAccountParams) (*model.Account, error)

	// ConsumeConfirmationCode marks the account verified and clears its code, but only
	// while code is still the stored confirmation code. Otherwise it returns
	// ErrAccountNotFound and changes nothing.
	ConsumeConfirmationCode(ctx context.Context, id, code string) (*model.Account, error)
}

// UpdateAccountParams defines the optional parameters for updating an account.
// Only the fields that are not nil will be updated.
type UpdateAccountParams struct {
	PasswordHash            *string
	ConfirmationCode        *string
	VerificationTokenExpiry *time.Time
}

func (p UpdateAccountParams) empty() bool {
	return p.PasswordHash == nil && p.ConfirmationCode == nil && p.VerificationTokenExpiry == nil
}

const (
	accountCollection = "accounts"

	emailIndexName    = "email_unique"
	usernameIndexName = "username_unique"
)

type accountMongoRepository struct {
	db  *mongo.Database
	now func() time.Time
}

// NewAccountMongoRepository creates a MongoDB backed AccountRepository and makes sure
// the unique indexes on email and username exist.
func NewAccountMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) AccountRepository {
	collection := db.Collection(accountCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndexName),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usernameIndexName),
		},
		{
			Keys:    bson.D{{Key: "confirmation_code", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create account indexes")
	}

	return &accountMongoRepository{db: db, now: time.Now}
}

func (r *accountMongoRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	now := r.now()
	account.CreatedAt = now
	account.UpdatedAt = now
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	if _, err := r.db.Collection(accountCollection).InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyError(err)
		}
		return nil, err
	}

	return account, nil
}

func (r *accountMongoRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *accountMongoRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *accountMongoRepository) GetAccountByConfirmationCode(ctx context.Context, code string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"confirmation_code": code})
}

func (r *accountMongoRepository) UpdateAccount(
	ctx context.Context,
	id string,
	params UpdateAccountParams,
) (*model.Account, error) {
	if params.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	// Build update query
	updateMap := bson.M{}
	if params.PasswordHash != nil {
		updateMap["password_hash"] = *params.PasswordHash
	}
	if params.ConfirmationCode != nil {
		updateMap["confirmation_code"] = *params.ConfirmationCode
	}
	if params.VerificationTokenExpiry != nil {
		updateMap["verification_token_expiry"] = *params.VerificationTokenExpiry
	}
	updateMap["updated_at"] = r.now()

	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": updateMap})
}

func (r *accountMongoRepository) ConsumeConfirmationCode(
	ctx context.Context,
	id string,
	code string,
) (*model.Account, error) {
	filter := bson.M{
		"_id":               id,
		"confirmation_code": code,
	}
	update := bson.M{
		"$set": bson.M{
			"is_verified":    true,
			"email_verified": true,
			"updated_at":     r.now(),
		},
		"$unset": bson.M{
			"confirmation_code":         "",
			"verification_token_expiry": "",
		},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *accountMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Account, error) {
	result := r.db.Collection(accountCollection).FindOne(ctx, filter)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := result.Decode(&account); err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *accountMongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.Account, error) {
	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := result.Decode(&account); err != nil {
		return nil, err
	}

	return &account, nil
}

// duplicateKeyError tells which unique index rejected the insert.
func duplicateKeyError(err error) error {
	if strings.Contains(err.Error(), usernameIndexName) {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}
