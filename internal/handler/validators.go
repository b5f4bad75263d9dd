package handler

import (
	"fmt"

	"restaurantgo/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func validateItemType(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case model.ItemType:
		return v.Valid()
	case string:
		return model.ItemType(v).Valid()
	}
	return false
}

func validatePaymentType(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case model.PaymentType:
		return v.Valid()
	case string:
		return model.PaymentType(v).Valid()
	}
	return false
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	switch s {
	case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusDelivered, model.OrderStatusCancelled:
		return true
	}
	return false
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("validator registration: unexpected engine %T", binding.Validator.Engine())
	}
	validators := map[string]validator.Func{
		"item_type":    validateItemType,
		"payment_type": validatePaymentType,
		"order_status": validateOrderStatus,
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("validator registration: %s", err.Error())
		}
	}
	return nil
}
