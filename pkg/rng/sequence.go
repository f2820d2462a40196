// Package rng は (storySeed, roomNumber) から再現可能な疑似乱数列を生成します。
//
// 乱数源はグローバルに差し替えず、Sequence インスタンスを引数としてレイアウト生成と
// 配置エンジンへ明示的に渡します。
package rng

// 線形合同法の定数です。リリース後に変更するとセーブデータとシードの再現性が壊れます。
const (
	Multiplier int64 = 9301
	Increment  int64 = 49297
	Modulus    int64 = 233280
)

// RoomSeedStride はルーム番号ごとのシード間隔です。
const RoomSeedStride = 1000

// RoomSeed はルーム単位のシードを返します。
func RoomSeed(storySeed int64, roomNumber int) int64 {
	return storySeed + int64(roomNumber)*RoomSeedStride
}

// Sequence は s = (s*A + C) mod M の漸化式による乱数列です。
// 同じシードからは環境に依らず同一の列が得られます。ゴルーチン間で共有しないでください。
type Sequence struct {
	state int64
	draws int
}

// New はシードから新しい Sequence を作成します。負のシードも法 M に正規化されます。
func New(seed int64) *Sequence {
	s := seed % Modulus
	if s < 0 {
		s += Modulus
	}
	return &Sequence{state: s}
}

// ForRoom はルーム用のシードで Sequence を作成します。
func ForRoom(storySeed int64, roomNumber int) *Sequence {
	return New(RoomSeed(storySeed, roomNumber))
}

// Float64 は [0,1) の値を返します。
func (s *Sequence) Float64() float64 {
	s.state = (s.state*Multiplier + Increment) % Modulus
	s.draws++
	return float64(s.state) / float64(Modulus)
}

// Intn は [0,n) の整数を返します。n <= 0 の場合は 0 を返し、列を消費しません。
func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// IntRange は [lo,hi] の整数を返します。
func (s *Sequence) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// Range は [lo,hi) の実数を返します。
func (s *Sequence) Range(lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

// Chance は確率 p で true を返します。
func (s *Sequence) Chance(p float64) bool {
	return s.Float64() < p
}

// Pick はスライスから1要素を選びます。空の場合はゼロ値と false を返します。
func Pick[T any](s *Sequence, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[s.Intn(len(items))], true
}

// Draws はこれまでに消費した乱数の個数です。デバッグ用です。
func (s *Sequence) Draws() int {
	return s.draws
}
