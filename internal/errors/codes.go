package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The frontend maps these codes to localized messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // bad email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed token
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // token blacklisted
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // duplicate email
	AuthNicknameExists     = "AUTH_NICKNAME_EXISTS"     // duplicate nickname

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"  // no access
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY" // admin only
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY" // owner only

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // bad input
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // bad ID
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE" // out of range
	ValidationRequired     = "VALIDATION_REQUIRED"      // missing field

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // no such resource
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // already exists
	ResourceConflict      = "RESOURCE_CONFLICT"       // conflict

	// ==================== Cart (CART_) ====================
	CartNotFound        = "CART_NOT_FOUND"         // cart does not exist yet
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"    // no such line
	CartInvalidQuantity = "CART_INVALID_QUANTITY"  // quantity < 1
	CartItemForbidden   = "CART_ITEM_FORBIDDEN"    // line belongs to another user

	// ==================== Products (PRODUCT_) ====================
	ProductNotFound       = "PRODUCT_NOT_FOUND"        // product missing or deleted
	ProductNotOwner       = "PRODUCT_NOT_OWNER"        // caller is not the seller
	ProductInvalidPrice   = "PRODUCT_INVALID_PRICE"    // price <= 0
	ProductInvalidStock   = "PRODUCT_INVALID_STOCK"    // stock < 0
	ProductInvalidInput   = "PRODUCT_INVALID_INPUT"    // bad condition etc

	// ==================== Categories (CATEGORY_) ====================
	CategoryNotFound      = "CATEGORY_NOT_FOUND"       // no such category
	CategoryAlreadyExists = "CATEGORY_ALREADY_EXISTS"  // duplicate name

	// ==================== Favorites (FAVORITE_) ====================
	FavoriteNotFound      = "FAVORITE_NOT_FOUND"       // not in favorites
	FavoriteAlreadyExists = "FAVORITE_ALREADY_EXISTS"  // already favorited

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // unsupported type
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"    // over the size cap
	UploadFailed          = "UPLOAD_FAILED"            // presign failed

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // generic server error
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB failure
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"   // bad configuration
)
