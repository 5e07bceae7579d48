package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// Roles is the closed set a User.Role may hold.
var Roles = []string{RoleAdmin, RoleUser, RoleEditor}

// User is a registered account in the users collection. UID links the
// record to its identity at the external provider.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	DisplayName string             `bson:"displayName" json:"displayName"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"` // bcrypt hash, never serialized
	Role        string             `bson:"role" json:"role"`
	PhotoURL    string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Number      PhoneNumber        `bson:"number,omitempty" json:"number,omitempty"`
	UID         string             `bson:"uid,omitempty" json:"uid,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// PhoneNumber is written as a string. Older records and clients may carry
// it as a number, which is read back in its decimal form.
type PhoneNumber string

func (n *PhoneNumber) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*n = PhoneNumber(raw.StringValue())
	case bsontype.Int32:
		*n = PhoneNumber(strconv.FormatInt(int64(raw.Int32()), 10))
	case bsontype.Int64:
		*n = PhoneNumber(strconv.FormatInt(raw.Int64(), 10))
	case bsontype.Double:
		*n = PhoneNumber(strconv.FormatFloat(raw.Double(), 'f', -1, 64))
	case bsontype.Null, bsontype.Undefined:
		*n = ""
	default:
		return fmt.Errorf("cannot decode %s into a phone number", t)
	}
	return nil
}

func (n *PhoneNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = PhoneNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("phone number must be a string or a number: %w", err)
	}
	*n = PhoneNumber(num.String())
	return nil
}
