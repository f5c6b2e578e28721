package handlers

import (
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

// User exported for testing purposes
type User struct {
	DB  databases.UserDatabase
	Now func() time.Time
}

type createUserRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6,max=72"`
	Role          string `json:"role" validate:"required,oneof=user lawyer judge"`
	ContactNumber string `json:"contactNumber" validate:"required,min=10,max=20"`
	Location      string `json:"location" validate:"required,max=200"`

	Specialization string   `json:"specialization" validate:"omitempty,min=2,max=200"`
	Experience     int      `json:"experience" validate:"gte=0,lte=80"`
	Education      string   `json:"education" validate:"omitempty,min=2,max=200"`
	LawyerType     []string `json:"lawyerType" validate:"omitempty,dive,oneof=corporate criminal family immigration civil ip"`
}

// lawyerProfileComplete reports whether a lawyer sign up carries the practice details
func (req createUserRequest) lawyerProfileComplete() bool {
	return req.Specialization != "" && req.Education != "" && len(req.LawyerType) > 0
}

func (u User) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

// UserCreateHandler registers a new profile. Passwords are stored as bcrypt hashes.
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to create user", http.StatusBadRequest, w, err)
		return
	}
	if req.Role == models.RoleLawyer && !req.lawyerProfileComplete() {
		config.ErrorStatus("failed to create user", http.StatusBadRequest, w, errors.New("lawyers need a specialization, education and at least one practice area"))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// check if the user already exists
	existing, err := u.DB.FindOne(ctx, bson.M{"user.email": email})
	if err == nil && existing != nil {
		config.ErrorStatus("email already exists", http.StatusConflict, w, errors.New("duplicate email"))
		return
	}
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := u.now().UTC()
	user := models.User{
		ID: primitive.NewObjectID().Hex(),
		Details: models.UserDetails{
			Email:         email,
			Name:          plainText(req.Name),
			Password:      string(hashedPassword),
			Role:          req.Role,
			ContactNumber: strings.TrimSpace(req.ContactNumber),
			Location:      plainText(req.Location),
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	if req.Role == models.RoleLawyer {
		user.Details.Specialization = plainText(req.Specialization)
		user.Details.Experience = req.Experience
		user.Details.Education = plainText(req.Education)
		user.Details.LawyerType = req.LawyerType
	}

	if _, err := u.DB.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			config.ErrorStatus("email already exists", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("user created", "user_id", user.ID, "role", user.Details.Role)
	writeJSON(w, http.StatusCreated, user)
}

// LawyersHandler returns a page of lawyer profiles, best rated first. The optional
// specialization and lawyerType query parameters narrow the list.
func (u User) LawyersHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	limit := getLimit(r)
	page := getPage(r)

	filter := bson.M{"user.role": models.RoleLawyer}
	if s := strings.TrimSpace(r.URL.Query().Get("specialization")); s != "" {
		filter["user.specialization"] = primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
	}
	if t := strings.TrimSpace(r.URL.Query().Get("lawyerType")); t != "" {
		filter["user.lawyerType"] = t
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "user.rating", Value: -1}, {Key: "user.ratingCount", Value: -1}}
	lawyers, err := u.DB.Find(ctx, filter, databases.PaginatedFindOptions(limit, page, sort))
	if err != nil {
		config.ErrorStatus("failed to get lawyers", http.StatusInternalServerError, w, errors.Wrap(err, "find lawyers"))
		return
	}
	count, err := u.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get lawyers", http.StatusInternalServerError, w, errors.Wrap(err, "count lawyers"))
		return
	}
	if lawyers == nil {
		lawyers = []models.User{}
	}

	writeJSON(w, http.StatusOK, models.PaginatedResponse{
		Data:       lawyers,
		Page:       page,
		Limit:      limit,
		TotalCount: count,
		TotalPages: int(math.Ceil(float64(count) / float64(limit))),
	})
}
