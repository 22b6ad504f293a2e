package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wekeza/investment-platform/internal/core/domain"
)

const (
	userCollection     = "users"
	counterCollection  = "counters"
	userSequenceName   = "user_id"
	sectorSequenceName = "sector_id"
)

// MongoUserRepository persists user accounts. User ids are small integers
// allocated from a counters collection, matching the public API contract.
type MongoUserRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		coll:     db.Collection(userCollection),
		counters: db.Collection(counterCollection),
	}
}

type mongoInvestorProfile struct {
	ContactInfo string  `bson:"contact_info"`
	AddressInfo string  `bson:"address_info"`
	IsLocal     bool    `bson:"is_local"`
	Avatar      *string `bson:"avatar,omitempty"`
	Interests   []int64 `bson:"interests"`
}

type mongoBusinessProfile struct {
	BusinessName string  `bson:"business_name"`
	ContactInfo  string  `bson:"contact_info"`
	AddressInfo  string  `bson:"address_info"`
	IsLocal      bool    `bson:"is_local"`
	Avatar       *string `bson:"avatar,omitempty"`
	Category     int64   `bson:"category,omitempty"`
}

type mongoUser struct {
	ID           int64  `bson:"_id"`
	Email        string `bson:"email"`
	Name         string `bson:"name"`
	PasswordHash string `bson:"password_hash"`
	IsInvestor   bool   `bson:"is_investor"`
	IsIndividual bool   `bson:"is_individual"`
	Active       bool   `bson:"active"`

	InvestorProfile *mongoInvestorProfile `bson:"investor_profile,omitempty"`
	BusinessProfile *mongoBusinessProfile `bson:"business_profile,omitempty"`

	OTP          string `bson:"otp,omitempty"`
	OTPCreatedAt int64  `bson:"otp_created_at,omitempty"`
	OTPAttempts  int    `bson:"otp_attempts,omitempty"`

	ResetToken          string `bson:"reset_token,omitempty"`
	ResetTokenCreatedAt int64  `bson:"reset_token_created_at,omitempty"`
	ResetAttempts       int    `bson:"reset_attempts,omitempty"`

	FailedLoginAttempts int   `bson:"failed_login_attempts,omitempty"`
	LastLoginAttempt    int64 `bson:"last_login_attempt,omitempty"`
	AccountLockedUntil  int64 `bson:"account_locked_until,omitempty"`

	CreatedAt int64 `bson:"created_at"`
	UpdatedAt int64 `bson:"updated_at"`
}

// nextSequence atomically allocates the next value of a named counter.
func nextSequence(ctx context.Context, counters *mongo.Collection, name string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return doc.Value, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	// Cheap existence probe before burning a sequence number; the unique
	// email index is still the real guarantee.
	if _, err := r.FindByEmail(ctx, user.Email); err == nil {
		return nil, domain.ErrUserExists
	}

	id, err := nextSequence(ctx, r.counters, userSequenceName)
	if err != nil {
		return nil, err
	}

	doc := toMongoUser(user)
	doc.ID = id

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	out := *user
	out.ID = id
	return &out, nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromMongoUser(&mu), nil
}

func (r *MongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	doc := toMongoUser(user)
	doc.ID = user.ID

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, doc)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique email index. Called once at startup.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	return nil
}

func toMongoUser(u *domain.User) *mongoUser {
	mu := &mongoUser{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		PasswordHash:        u.PasswordHash,
		IsInvestor:          u.IsInvestor,
		IsIndividual:        u.IsIndividual,
		Active:              u.Active,
		OTP:                 u.OTP,
		OTPCreatedAt:        timeToUnix(u.OTPCreatedAt),
		OTPAttempts:         u.OTPAttempts,
		ResetToken:          u.ResetToken,
		ResetTokenCreatedAt: timeToUnix(u.ResetTokenCreatedAt),
		ResetAttempts:       u.ResetAttempts,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LastLoginAttempt:    timeToUnix(u.LastLoginAttempt),
		AccountLockedUntil:  timeToUnix(u.AccountLockedUntil),
		CreatedAt:           timeToUnix(u.CreatedAt),
		UpdatedAt:           timeToUnix(u.UpdatedAt),
	}
	if u.InvestorProfile != nil {
		mu.InvestorProfile = &mongoInvestorProfile{
			ContactInfo: u.InvestorProfile.ContactInfo,
			AddressInfo: u.InvestorProfile.AddressInfo,
			IsLocal:     u.InvestorProfile.IsLocal,
			Avatar:      u.InvestorProfile.Avatar,
			Interests:   u.InvestorProfile.Interests,
		}
	}
	if u.BusinessProfile != nil {
		mu.BusinessProfile = &mongoBusinessProfile{
			BusinessName: u.BusinessProfile.BusinessName,
			ContactInfo:  u.BusinessProfile.ContactInfo,
			AddressInfo:  u.BusinessProfile.AddressInfo,
			IsLocal:      u.BusinessProfile.IsLocal,
			Avatar:       u.BusinessProfile.Avatar,
			Category:     u.BusinessProfile.Category,
		}
	}
	return mu
}

func fromMongoUser(mu *mongoUser) *domain.User {
	u := &domain.User{
		ID:                  mu.ID,
		Email:               mu.Email,
		Name:                mu.Name,
		PasswordHash:        mu.PasswordHash,
		IsInvestor:          mu.IsInvestor,
		IsIndividual:        mu.IsIndividual,
		Active:              mu.Active,
		OTP:                 mu.OTP,
		OTPCreatedAt:        unixToTime(mu.OTPCreatedAt),
		OTPAttempts:         mu.OTPAttempts,
		ResetToken:          mu.ResetToken,
		ResetTokenCreatedAt: unixToTime(mu.ResetTokenCreatedAt),
		ResetAttempts:       mu.ResetAttempts,
		FailedLoginAttempts: mu.FailedLoginAttempts,
		LastLoginAttempt:    unixToTime(mu.LastLoginAttempt),
		AccountLockedUntil:  unixToTime(mu.AccountLockedUntil),
		CreatedAt:           unixToTime(mu.CreatedAt),
		UpdatedAt:           unixToTime(mu.UpdatedAt),
	}
	if mu.InvestorProfile != nil {
		interests := mu.InvestorProfile.Interests
		if interests == nil {
			interests = []int64{}
		}
		u.InvestorProfile = &domain.InvestorProfile{
			ContactInfo: mu.InvestorProfile.ContactInfo,
			AddressInfo: mu.InvestorProfile.AddressInfo,
			IsLocal:     mu.InvestorProfile.IsLocal,
			Avatar:      mu.InvestorProfile.Avatar,
			Interests:   interests,
		}
	}
	if mu.BusinessProfile != nil {
		u.BusinessProfile = &domain.BusinessProfile{
			BusinessName: mu.BusinessProfile.BusinessName,
			ContactInfo:  mu.BusinessProfile.ContactInfo,
			AddressInfo:  mu.BusinessProfile.AddressInfo,
			IsLocal:      mu.BusinessProfile.IsLocal,
			Avatar:       mu.BusinessProfile.Avatar,
			Category:     mu.BusinessProfile.Category,
		}
	}
	return u
}

func timeToUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
