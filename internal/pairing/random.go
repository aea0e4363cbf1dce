// random.go

package pairing

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// Rand 抽签使用的随机源，测试时注入固定种子
type Rand interface {
	// Intn 返回 [0, n) 内的随机数
	Intn(n int) int
}

// NewRand 使用固定种子创建随机源
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewEntropyRand 使用系统熵创建随机源
func NewEntropyRand() *rand.Rand {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return NewRand(time.Now().UnixNano())
	}
	return NewRand(int64(binary.LittleEndian.Uint64(b[:])))
}

// draw 从候选中无放回抽取一名，返回被抽中者和剩余候选
func draw[T any](rng Rand, pool []T) (T, []T) {
	i := rng.Intn(len(pool))
	picked := pool[i]
	rest := make([]T, 0, len(pool)-1)
	rest = append(rest, pool[:i]...)
	rest = append(rest, pool[i+1:]...)
	return picked, rest
}

// drawN 无放回抽取 n 名，按抽取顺序返回
func drawN[T any](rng Rand, pool []T, n int) ([]T, []T) {
	picked := make([]T, 0, n)
	for len(picked) < n && len(pool) > 0 {
		var p T
		p, pool = draw(rng, pool)
		picked = append(picked, p)
	}
	return picked, pool
}
