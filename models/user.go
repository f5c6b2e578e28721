package models

// Profile roles stored on a user record
const (
	RoleUser   = "user"
	RoleLawyer = "lawyer"
	RoleJudge  = "judge"
	RoleAdmin  = "admin"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Email         string `json:"email" bson:"email"`
	Name          string `json:"name" bson:"name"`
	Password      string `json:"-" bson:"password"`
	Role          string `json:"role" bson:"role"`
	ContactNumber string `json:"contactNumber" bson:"contactNumber"`
	Location      string `json:"location" bson:"location"`

	// lawyer profile
	Specialization string   `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Experience     int      `json:"experience,omitempty" bson:"experience,omitempty"`
	Education      string   `json:"education,omitempty" bson:"education,omitempty"`
	LawyerType     []string `json:"lawyerType,omitempty" bson:"lawyerType,omitempty"`
	Rating         float64  `json:"rating" bson:"rating"`
	RatingCount    int      `json:"ratingCount" bson:"ratingCount"`

	CreatedAt interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt interface{} `json:"updatedAt" bson:"updatedAt"`
}
