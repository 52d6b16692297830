package userController

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"bakehouse-api/configs"
	"bakehouse-api/models"
	"bakehouse-api/responses"
)

var userCollection *mongo.Collection = configs.GetCollection(configs.DB, "users")

var validate = validator.New()

// SignUpRequest registers a customer by phone number.
type SignUpRequest struct {
	Name            string `json:"name" validate:"required"`
	Phone           string `json:"phone" validate:"required,min=10"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,min=8"`
}

type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func UserSignUp(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	var req SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "Invalid signup request: "+err.Error())
	}
	if req.Password != req.ConfirmPassword {
		return badRequest(c, "Passwords do not match")
	}

	var existing models.User
	err := userCollection.FindOne(ctx, bson.M{"phone": req.Phone}).Decode(&existing)
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(responses.APIResponse{
			Status:  fiber.StatusConflict,
			Message: "An account with this phone number already exists",
		})
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return internalError(c, "Error checking existing users")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return internalError(c, "Failed to hash password")
	}

	user := models.User{
		Id:       primitive.NewObjectID(),
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Password: string(hashed),
		Type:     "user",
		Cart:     []models.CartItem{},
	}
	if _, err := userCollection.InsertOne(ctx, user); err != nil {
		return internalError(c, "Failed to create user")
	}

	token, err := issueToken(user)
	if err != nil {
		return internalError(c, "Failed to issue token")
	}

	return c.Status(fiber.StatusCreated).JSON(responses.APIResponse{
		Status:  fiber.StatusCreated,
		Message: "Account created successfully",
		Result: &fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":    user.Id.Hex(),
				"name":  user.Name,
				"phone": user.Phone,
			},
		},
	})
}

func UserLogin(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "Phone and password are required")
	}

	var user models.User
	err := userCollection.FindOne(ctx, bson.M{"phone": req.Phone}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return unauthorized(c, "Invalid phone or password")
		}
		return internalError(c, "Error fetching user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return unauthorized(c, "Invalid phone or password")
	}

	token, err := issueToken(user)
	if err != nil {
		return internalError(c, "Failed to issue token")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Logged in successfully",
		Result: &fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":    user.Id.Hex(),
				"name":  user.Name,
				"phone": user.Phone,
				"type":  user.Type,
			},
		},
	})
}

// GetProfile returns the caller's account without the password hash.
func GetProfile(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userId, ok := c.Locals("userId").(string)
	if !ok || userId == "" {
		return unauthorized(c, "User ID not found in token")
	}
	userObjectID, err := primitive.ObjectIDFromHex(userId)
	if err != nil {
		return unauthorized(c, "Invalid user ID format")
	}

	var user models.User
	err = userCollection.FindOne(ctx, bson.M{"_id": userObjectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.Status(fiber.StatusNotFound).JSON(responses.APIResponse{
				Status:  fiber.StatusNotFound,
				Message: "User not found",
			})
		}
		return internalError(c, "Failed to fetch user")
	}

	return c.Status(fiber.StatusOK).JSON(responses.APIResponse{
		Status:  fiber.StatusOK,
		Message: "Profile fetched successfully",
		Result: &fiber.Map{
			"user": user,
		},
	})
}

func issueToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":   user.Id.Hex(),
		"type": user.Type,
		"exp":  time.Now().Add(30 * 24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(configs.EnvJWTSecret()))
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(responses.APIResponse{
		Status:  fiber.StatusBadRequest,
		Message: msg,
	})
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(responses.APIResponse{
		Status:  fiber.StatusUnauthorized,
		Message: msg,
	})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(responses.APIResponse{
		Status:  fiber.StatusInternalServerError,
		Message: msg,
	})
}
