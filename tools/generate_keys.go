package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

func main() {
	fmt.Println("=== estate-listing key generator ===")
	fmt.Println()

	// JWT 签名密钥 (256 bits)
	jwtKey, err := generateSecureKey(32)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to generate JWT key:", err)
		os.Exit(1)
	}

	// 会话密钥 (256 bits)
	sessionKey, err := generateSecureKey(32)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to generate session key:", err)
		os.Exit(1)
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SIGNING_KEY=%s\n", jwtKey)
	fmt.Printf("SESSION_SECRET=%s\n", sessionKey)
	fmt.Println()
	fmt.Println("Use different keys per environment and never commit them.")
}

// generateSecureKey 生成指定长度的安全密钥
func generateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
