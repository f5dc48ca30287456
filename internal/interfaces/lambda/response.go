package lambda

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/motoshop/backend/internal/domain/shared"
	"github.com/motoshop/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

func jsonResponse(status int, body any, requestID string) events.APIGatewayProxyResponse {
	headers := map[string]string{requestIDHeader: requestID}
	if status == http.StatusNoContent {
		return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		payload, _ = json.Marshal(dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal,
			"Internal server error: "+err.Error(), requestID))
	}
	headers["Content-Type"] = "application/json; charset=utf-8"
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(payload),
	}
}

func success(status int, data any, requestID string) events.APIGatewayProxyResponse {
	return jsonResponse(status, dto.NewSuccessResponse(data), requestID)
}

func failure(status int, code, message, requestID string) events.APIGatewayProxyResponse {
	return jsonResponse(status, dto.NewErrorResponseWithRequestID(code, message, requestID), requestID)
}

// errorResponse answers err with the status it carries. Errors without a
// status become a 500 and are logged.
func errorResponse(log *zap.Logger, err error, requestID string) events.APIGatewayProxyResponse {
	var coder shared.StatusCoder
	if errors.As(err, &coder) {
		code := dto.ErrCodeInternal
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			code = domainErr.Code
		}
		return failure(coder.StatusCode(), code, coder.Error(), requestID)
	}

	log.Error("Unhandled error", zap.Error(err))
	return failure(http.StatusInternalServerError, dto.ErrCodeInternal, "Internal server error: "+err.Error(), requestID)
}
