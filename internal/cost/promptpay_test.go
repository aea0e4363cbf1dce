package cost

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPhoneNumber(t *testing.T) {
	assert.Equal(t, "0812345678", FormatPhoneNumber("081-234-5678"))
	assert.Equal(t, "0812345678", FormatPhoneNumber("+66 81 234 5678"))
	assert.Equal(t, "0812345678", FormatPhoneNumber("66812345678"))
	assert.Equal(t, "", FormatPhoneNumber("abc"))
}

func TestValidatePromptPay(t *testing.T) {
	valid := []string{"0812345678", "0612345678", "0912345678"}
	for _, n := range valid {
		assert.True(t, ValidatePromptPay(n), n)
	}
	invalid := []string{"081234567", "08123456789", "1812345678", "0212345678", "08123a5678"}
	for _, n := range invalid {
		assert.False(t, ValidatePromptPay(n), n)
	}
}

func TestDisplayNumber(t *testing.T) {
	assert.Equal(t, "081-234-5678", DisplayNumber("0812345678"))
	assert.Equal(t, "123", DisplayNumber("123"))
}

func TestCRC16(t *testing.T) {
	assert.Equal(t, uint16(0x29B1), crc16("123456789"))
}

func TestPayload(t *testing.T) {
	payload, err := Payload("081-234-5678", 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(payload, "000201010211"))
	assert.Contains(t, payload, "29370016A00000067701011101130066812345678")
	assert.Contains(t, payload, "5802TH")
	assert.Contains(t, payload, "5303764")

	body := payload[:len(payload)-4]
	assert.True(t, strings.HasSuffix(body, "6304"))
	assert.Equal(t, fmt.Sprintf("%04X", crc16(body)), payload[len(payload)-4:])
}

func TestPayloadWithAmount(t *testing.T) {
	payload, err := Payload("0812345678", 122.5)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(payload, "000201010212"))
	assert.Contains(t, payload, "5406122.50")
}

func TestPayloadRejectsInvalidNumber(t *testing.T) {
	_, err := Payload("0212345678", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Payload("0812345678", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
