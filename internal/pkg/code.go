package pkg

import (
	"crypto/rand"
	"fmt"
)

// RandDigits n 位数字验证码；丢弃 >=250 的字节，避免取模偏差
func RandDigits(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n+4)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
