package common

const (
	// LowerAlnum is the alphabet institution codes are drawn from.
	LowerAlnum = "abcdefghijklmnopqrstuvwxyz0123456789"

	// Alnum is the alphabet for generated passwords and passphrases.
	Alnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)
