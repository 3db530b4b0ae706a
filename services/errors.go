package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrEmailRequired         = errors.New("email is required")
	ErrDisplayNameRequired   = errors.New("display name is required")
	ErrOccasionNameRequired  = errors.New("occasion name is required")
	ErrOccasionInvalidType   = errors.New("invalid occasion type")
	ErrOccasionInvalidBudget = errors.New("occasion budget must not be negative")
	ErrOccasionInvalidDate   = errors.New("occasion date must be in YYYY-MM-DD format")
	ErrItemURLRequired       = errors.New("product url is required")
	ErrItemNameRequired      = errors.New("product name is required and could not be derived from the url")
	ErrItemInvalidPriority   = errors.New("priority must be 1, 2 or 3")
	ErrInvalidFileType       = errors.New("unsupported file type")
	ErrInviteExpired         = errors.New("invite has expired")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrAlreadyMember          = errors.New("user is already a member of this occasion")
	ErrInviteAlreadyPending   = errors.New("a pending invite already exists for this email")
	ErrInviteNotPending       = errors.New("invite has already been answered")
	ErrOccasionAlreadyMatched = errors.New("occasion has already been matched")
	ErrOccasionNotMatched     = errors.New("occasion has not been matched yet")
	ErrMembershipChanged      = errors.New("occasion members changed while matching, try again")
	ErrItemAlreadyPurchased   = errors.New("item has already been purchased")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrNotOccasionMember      = errors.New("you are not a member of this occasion")
	ErrCreatorActionForbidden = errors.New("only the occasion creator can perform this action")
	ErrCreatorCannotLeave     = errors.New("the occasion creator cannot leave the occasion")
	ErrNotItemOwner           = errors.New("only the owner of the item can perform this action")
	ErrCannotPurchaseOwnItem  = errors.New("you cannot mark your own item as purchased")
	ErrNotPurchaser           = errors.New("only the member who purchased the item can unmark it")
	ErrNotInvitee             = errors.New("this invite was sent to another user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrOccasionNotFound   = errors.New("occasion not found")
	ErrMemberNotFound     = errors.New("occasion member not found")
	ErrInviteNotFound     = errors.New("invite not found")
	ErrItemNotFound       = errors.New("wishlist item not found")
	ErrAssignmentNotFound = errors.New("assignment not found")

	// Инфраструктура
	ErrUploadsDisabled = errors.New("file uploads are not configured")
)
