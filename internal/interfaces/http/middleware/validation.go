package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/motoshop/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's validator report fields by their JSON names
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(dto.JSONFieldName)
	}
}
