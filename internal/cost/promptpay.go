// promptpay.go

package cost

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	promptPayAID     = "A000000677010111"
	promptPayCountry = "TH"
	promptPayTHB     = "764"
)

// FormatPhoneNumber 只保留数字，66 开头的国际号码改为 0 开头
func FormatPhoneNumber(input string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, input)
	if strings.HasPrefix(digits, "66") {
		return "0" + digits[2:]
	}
	return digits
}

// ValidatePromptPay 校验 PromptPay 手机号: 10 位数字，0 开头，第二位为 6、8 或 9
func ValidatePromptPay(number string) bool {
	if len(number) != 10 || number[0] != '0' {
		return false
	}
	switch number[1] {
	case '6', '8', '9':
	default:
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DisplayNumber 显示格式 xxx-xxx-xxxx
func DisplayNumber(number string) string {
	if len(number) != 10 {
		return number
	}
	return number[:3] + "-" + number[3:6] + "-" + number[6:]
}

// Payload 生成 PromptPay 二维码内容，amount 为 0 时生成不带金额的静态码
func Payload(number string, amount float64) (string, error) {
	number = FormatPhoneNumber(number)
	if !ValidatePromptPay(number) {
		return "", fmt.Errorf("%w: 无效的PromptPay号码 %s", ErrInvalidInput, number)
	}
	if amount < 0 {
		return "", fmt.Errorf("%w: 金额不能为负数", ErrInvalidInput)
	}

	// 手机号转换为 0066 + 去掉开头 0 的 13 位
	target := "0066" + number[1:]
	merchant := tlv("00", promptPayAID) + tlv("01", target)

	var b strings.Builder
	b.WriteString(tlv("00", "01"))
	if amount > 0 {
		b.WriteString(tlv("01", "12"))
	} else {
		b.WriteString(tlv("01", "11"))
	}
	b.WriteString(tlv("29", merchant))
	b.WriteString(tlv("58", promptPayCountry))
	b.WriteString(tlv("53", promptPayTHB))
	if amount > 0 {
		b.WriteString(tlv("54", fmt.Sprintf("%.2f", amount)))
	}
	b.WriteString("6304")
	b.WriteString(fmt.Sprintf("%04X", crc16(b.String())))
	return b.String(), nil
}

func tlv(tag, value string) string {
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}

// crc16 CRC-16/CCITT-FALSE，多项式 0x1021，初始值 0xFFFF
func crc16(data string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
