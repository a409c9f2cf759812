package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uninest/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// accountsCollection holds one document per account
const accountsCollection = "users"

type mongoAccount struct {
	ID                         primitive.ObjectID `bson:"_id,omitempty"`
	FirstName                  string             `bson:"firstName"`
	LastName                   string             `bson:"lastName"`
	Email                      string             `bson:"email"`
	Phone                      string             `bson:"phone,omitempty"`
	Password                   string             `bson:"password"`
	UserType                   string             `bson:"userType"`
	University                 string             `bson:"university,omitempty"`
	BusinessName               string             `bson:"businessName,omitempty"`
	BusinessRegistrationNumber string             `bson:"businessRegistrationNumber,omitempty"`
	IsActive                   bool               `bson:"isActive"`
	CreatedAt                  time.Time          `bson:"createdAt"`
	UpdatedAt                  time.Time          `bson:"updatedAt"`
}

func (m *mongoAccount) toModel() (*models.Account, error) {
	profile := models.NewProfile(models.Role(m.UserType), m.University, m.BusinessName, m.BusinessRegistrationNumber)
	if profile == nil {
		return nil, fmt.Errorf("unknown user type %q for account %s", m.UserType, m.ID.Hex())
	}
	return &models.Account{
		ID:           m.ID.Hex(),
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Phone:        m.Phone,
		PasswordHash: m.Password,
		Profile:      profile,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func fromModel(a *models.Account) *mongoAccount {
	doc := &mongoAccount{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		Password:  a.PasswordHash,
		UserType:  string(a.Role()),
		IsActive:  a.IsActive,
	}
	switch p := a.Profile.(type) {
	case models.StudentProfile:
		doc.University = p.University
	case models.HostelOwnerProfile:
		doc.BusinessName = p.BusinessName
		doc.BusinessRegistrationNumber = p.BusinessRegistrationNumber
	}
	return doc
}

// mongoAccountRepository implements the credential store on MongoDB
type mongoAccountRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
	now        func() time.Time
}

// NewMongoAccountRepository creates a new MongoDB account repository
func NewMongoAccountRepository(db *mongo.Database, logger *zap.Logger) *mongoAccountRepository {
	return &mongoAccountRepository{
		collection: db.Collection(accountsCollection),
		logger:     logger.Named("account_repository"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the unique email index. It is idempotent.
func (r *mongoAccountRepository) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_1"),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	r.logger.Info("ensured indexes for accounts collection")
	return nil
}

// Create inserts a new account, assigning its ID and timestamps.
// A duplicate key error on email is reported as ErrDuplicateEmail.
func (r *mongoAccountRepository) Create(ctx context.Context, account *models.Account) error {
	doc := fromModel(account)
	doc.ID = primitive.NewObjectID()
	now := r.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to create account", zap.Error(err))
		return fmt.Errorf("failed to create account: %w", err)
	}

	account.ID = doc.ID.Hex()
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetByEmail retrieves an account by its lower-cased email
func (r *mongoAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		r.logger.Error("failed to get account by email", zap.Error(err))
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, err
}

// GetByID retrieves an account by its hex ObjectID. Malformed ids are reported as not found.
func (r *mongoAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	account, err := r.findOne(ctx, bson.M{"_id": objectID})
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		r.logger.Error("failed to get account by id", zap.Error(err), zap.String("accountId", id))
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, err
}

// ExistsByEmail checks if an account exists with the given email
func (r *mongoAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := r.collection.FindOne(ctx, bson.M{"email": email}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err))
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return true, nil
}

// SetActive flips the activity flag of an account
func (r *mongoAccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrAccountNotFound
	}

	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": r.now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		r.logger.Error("failed to update account status", zap.Error(err), zap.String("accountId", id))
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *mongoAccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var doc mongoAccount
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return doc.toModel()
}
