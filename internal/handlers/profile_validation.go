package handlers

import (
	"path/filepath"
	"strings"
	"unicode"
)

const (
	maxBioLength   = 500
	minPhoneDigits = 7
	maxPhoneLength = 32
)

var avatarContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func validateUpdateProfileRequest(req updateProfileRequest) string {
	if req.DisplayName == nil && req.Bio == nil && req.Phone == nil {
		return "No fields to update"
	}
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) == "" {
		return "display_name must not be empty"
	}
	if req.Bio != nil && len([]rune(*req.Bio)) > maxBioLength {
		return "bio must be 500 characters or fewer"
	}
	if req.Phone != nil {
		if err := validatePhone(*req.Phone); err != "" {
			return err
		}
	}
	return ""
}

// validatePhone accepts digits with an optional leading + and the usual
// separators. An empty value clears the phone.
func validatePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if len(phone) > maxPhoneLength {
		return "phone is too long"
	}

	digits := 0
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "phone contains invalid characters"
		}
	}
	if digits < minPhoneDigits {
		return "phone must contain at least 7 digits"
	}
	return ""
}

func avatarContentType(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := avatarContentTypes[ext]
	return contentType, ok
}
