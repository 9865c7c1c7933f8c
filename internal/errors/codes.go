package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The frontend maps these codes to localized messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED" // logged out token
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthResetTokenInvalid  = "AUTH_RESET_TOKEN_INVALID"
	AuthResetTokenExpired  = "AUTH_RESET_TOKEN_EXPIRED"
	AuthResetTokenUsed     = "AUTH_RESET_TOKEN_USED"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Products (PRODUCT_) ====================
	ProductNotFound       = "PRODUCT_NOT_FOUND"
	ProductOutOfStock     = "PRODUCT_OUT_OF_STOCK" // not enough stock for the requested quantity
	CategoryNotFound      = "CATEGORY_NOT_FOUND"
	CategoryAlreadyExists = "CATEGORY_ALREADY_EXISTS"

	// ==================== Cart (CART_) ====================
	CartNotFound     = "CART_NOT_FOUND"
	CartItemNotFound = "CART_ITEM_NOT_FOUND"
	CartEmpty        = "CART_EMPTY"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound              = "ORDER_NOT_FOUND"
	OrderInvalidStatus         = "ORDER_INVALID_STATUS"
	OrderMissingShippingInfo   = "ORDER_MISSING_SHIPPING_INFO"
	OrderInvalidPaymentMethod  = "ORDER_INVALID_PAYMENT_METHOD"
	OrderIncompleteCardDetails = "ORDER_INCOMPLETE_CARD_DETAILS"
	OrderMissingNote           = "ORDER_MISSING_NOTE" // cancellation without a reason

	// ==================== Reviews (REVIEW_) ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"
	ReviewInvalidRating = "REVIEW_INVALID_RATING"
	ReviewAlreadyExists = "REVIEW_ALREADY_EXISTS"
	ReviewNotPurchased  = "REVIEW_NOT_PURCHASED" // product not part of the referenced order

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
