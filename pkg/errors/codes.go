package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_014"
	ErrCodeStorageError       ErrorCode = "COMMON_015"
	ErrCodeSearchError        ErrorCode = "COMMON_016"
	ErrCodeNotImplemented     ErrorCode = "COMMON_017"
)

// Short aliases used throughout the codebase.
const (
	CodeInternal          = ErrCodeInternal
	CodeInvalidParam      = ErrCodeBadRequest
	CodeUnauthorized      = ErrCodeUnauthorized
	CodeForbidden         = ErrCodeForbidden
	CodeNotFound          = ErrCodeNotFound
	CodeConflict          = ErrCodeConflict
	CodeRateLimit         = ErrCodeTooManyRequests
	CodeNotImplemented    = ErrCodeNotImplemented
	CodeDatabaseError     = ErrCodeDatabaseError
	CodeCacheError        = ErrCodeCacheError
	CodeMessageQueueError = ErrCodeMessageQueueError
	CodeStorageError      = ErrCodeStorageError
	CodeSearchError       = ErrCodeSearchError
	CodeUnknown           = ErrorCode("UNKNOWN")
	CodeOK                = ErrorCode("OK")

	// Extraction taxonomy aliases
	CodeFatalInput        = ErrCodeExtractionFatalInput
	CodePatternMiss       = ErrCodeExtractionPatternMiss
	CodeValidationFailure = ErrCodeExtractionValidation
	CodeStructuralAnomaly = ErrCodeExtractionStructural
	CodeTenderNotFound    = ErrCodeTenderNotFound
)

// Extraction Pipeline Error Codes
//
// These four codes mirror the pipeline's degradation ladder: a pattern miss is
// silent (the field stays absent), a validation failure becomes an issue on
// the result, a structural anomaly becomes a warning, and only a fatal input
// aborts the run.
const (
	ErrCodeExtractionFatalInput  ErrorCode = "EXT_001"
	ErrCodeExtractionPatternMiss ErrorCode = "EXT_002"
	ErrCodeExtractionValidation  ErrorCode = "EXT_003"
	ErrCodeExtractionStructural  ErrorCode = "EXT_004"
	ErrCodePatternCompileFailed  ErrorCode = "EXT_005"
	ErrCodeFieldUnknown          ErrorCode = "EXT_006"
)

// Lot Segmentation Error Codes
const (
	ErrCodeLotNumeroOutOfRange ErrorCode = "LOT_001"
	ErrCodeLotTitleInvalid     ErrorCode = "LOT_002"
	ErrCodeLotAmountIncoherent ErrorCode = "LOT_003"
)

// Criteria Extraction Error Codes
const (
	ErrCodeCriteriaWeightOutOfRange ErrorCode = "CRIT_001"
	ErrCodeCriteriaSectionNotFound  ErrorCode = "CRIT_002"
)

// Tender Record / Persistence Error Codes
const (
	ErrCodeTenderNotFound      ErrorCode = "TDR_001"
	ErrCodeTenderAlreadyExists ErrorCode = "TDR_002"
	ErrCodeTenderIndexFailed   ErrorCode = "TDR_003"
	ErrCodeDocumentFetchFailed ErrorCode = "TDR_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeSearchError:        http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeExtractionFatalInput:  http.StatusBadRequest,
	ErrCodeExtractionPatternMiss: http.StatusOK,
	ErrCodeExtractionValidation:  http.StatusUnprocessableEntity,
	ErrCodeExtractionStructural:  http.StatusOK,
	ErrCodePatternCompileFailed:  http.StatusInternalServerError,
	ErrCodeFieldUnknown:          http.StatusBadRequest,

	ErrCodeLotNumeroOutOfRange: http.StatusUnprocessableEntity,
	ErrCodeLotTitleInvalid:     http.StatusUnprocessableEntity,
	ErrCodeLotAmountIncoherent: http.StatusUnprocessableEntity,

	ErrCodeCriteriaWeightOutOfRange: http.StatusUnprocessableEntity,
	ErrCodeCriteriaSectionNotFound:  http.StatusOK,

	ErrCodeTenderNotFound:      http.StatusNotFound,
	ErrCodeTenderAlreadyExists: http.StatusConflict,
	ErrCodeTenderIndexFailed:   http.StatusInternalServerError,
	ErrCodeDocumentFetchFailed: http.StatusBadGateway,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessageQueueError:  "message queue error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeSearchError:        "search index error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeExtractionFatalInput:  "document text unusable for extraction",
	ErrCodeExtractionPatternMiss: "no pattern matched",
	ErrCodeExtractionValidation:  "extracted value failed validation",
	ErrCodeExtractionStructural:  "structural anomaly in document",
	ErrCodePatternCompileFailed:  "failed to compile extraction pattern",
	ErrCodeFieldUnknown:          "unknown field name",

	ErrCodeLotNumeroOutOfRange: "lot number out of accepted range",
	ErrCodeLotTitleInvalid:     "lot title length out of bounds",
	ErrCodeLotAmountIncoherent: "lot maximum amount below estimated amount",

	ErrCodeCriteriaWeightOutOfRange: "criteria weight outside [0,100]",
	ErrCodeCriteriaSectionNotFound:  "no award criteria section found",

	ErrCodeTenderNotFound:      "tender record not found",
	ErrCodeTenderAlreadyExists: "tender record already exists",
	ErrCodeTenderIndexFailed:   "failed to index tender record",
	ErrCodeDocumentFetchFailed: "failed to fetch source document",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
