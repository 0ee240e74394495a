package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"examstore_backend/internals/features/users/dto"
	"examstore_backend/internals/features/users/model"
	"examstore_backend/internals/features/users/service"
	helper "examstore_backend/internals/helpers"
)

var validate = validator.New()

type UserController struct {
	DB   *gorm.DB
	Auth *service.AuthService
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db, Auth: service.NewAuthService(db)}
}

func (ctl *UserController) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	user, err := ctl.Auth.Register(&req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return helper.JsonError(c, fiber.StatusConflict, helper.ErrCodeConflict, err.Error())
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "registration failed")
	}
	return helper.JsonCreated(c, user)
}

func (ctl *UserController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	user, token, err := ctl.Auth.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return helper.JsonError(c, fiber.StatusUnauthorized, helper.ErrCodeAuth, err.Error())
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "login failed")
	}

	return helper.JsonOK(c, dto.AuthResponse{
		Token:    token,
		UserID:   user.UserID.String(),
		Email:    user.UserEmail,
		FullName: user.UserFullName,
	})
}

func (ctl *UserController) Me(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)
	var user model.User
	if err := ctl.DB.Preload("Addresses").First(&user, "user_id = ?", userID).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, helper.ErrCodeNotFound, "user not found")
	}
	return helper.JsonOK(c, user)
}

// CreateAddress adds a shipping/billing address. The default address
// feeds the VAT country lookup, so only one may hold the flag.
func (ctl *UserController) CreateAddress(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)

	var req dto.AddressRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	addr := model.UserAddress{
		AddressUserID:    userID,
		AddressLine1:     req.Line1,
		AddressLine2:     req.Line2,
		AddressCity:      req.City,
		AddressPostcode:  req.Postcode,
		AddressCountry:   strings.ToUpper(req.Country),
		AddressIsDefault: req.IsDefault,
	}

	err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&model.UserAddress{}).
				Where("address_user_id = ?", userID).
				Update("address_is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&addr).Error
	})
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "address create failed")
	}
	return helper.JsonCreated(c, addr)
}

func (ctl *UserController) ListAddresses(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)
	var addresses []model.UserAddress
	if err := ctl.DB.Where("address_user_id = ?", userID).
		Order("address_is_default desc, created_at asc").
		Find(&addresses).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "address lookup failed")
	}
	return helper.JsonOK(c, addresses)
}

func (ctl *UserController) DeleteAddress(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)
	addrID, err := uuid.Parse(c.Params("address_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid address id")
	}

	res := ctl.DB.Where("address_id = ? AND address_user_id = ?", addrID, userID).
		Delete(&model.UserAddress{})
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "address delete failed")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, helper.ErrCodeNotFound, "address not found")
	}
	return helper.JsonOK(c, fiber.Map{"deleted": true})
}
