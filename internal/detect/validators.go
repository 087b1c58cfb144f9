package detect

import (
	"strconv"
	"strings"
)

// ValidateLuhn checks a card-shaped number with the Luhn checksum.
// Separators are stripped; digit counts outside the issuer range 13-19
// are rejected outright.
func ValidateLuhn(number string) bool {
	var digits []int
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

// ValidateSSN checks an AAA-GG-SSSS structured number, rejecting the
// reserved sentinel groups (area 0, 666, >=900; group 0; serial 0).
func ValidateSSN(ssn string) bool {
	parts := strings.Split(ssn, "-")
	if len(parts) != 3 {
		return false
	}

	area, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	group, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	serial, err := strconv.Atoi(parts[2])
	if err != nil {
		return false
	}

	if area == 0 || area == 666 || area >= 900 {
		return false
	}
	if group == 0 || serial == 0 {
		return false
	}
	return true
}

// ValidateIPv4 checks a dotted-quad string: exactly four parts, each an
// unsigned 8-bit integer.
func ValidateIPv4(ip string) bool {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// stripSeparators removes dashes and spaces before checksum validation.
func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, s)
}
