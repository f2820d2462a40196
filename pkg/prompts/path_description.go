package prompts

import (
	"fmt"
	"math"
	"strings"

	"github.com/shouni/go-roomscape-kit/pkg/domain"
)

// levelThreshold は入口と出口の高さの差がこの値（%）未満なら水平とみなす閾値です。
const levelThreshold = 8

// RoomPath は1ルーム分の経路の要約です。高さは画像の上端を 0% とした割合です。
type RoomPath struct {
	RoomID     string
	EntryPct   int
	ExitPct    int
	Bends      int
	Trajectory string
	StartXPct  int
	EndXPct    int
}

// Transition は隣接ルームの境界で経路が通過する高さです。
type Transition struct {
	From      int
	To        int
	BoundaryX int
	CrossYPct int
}

// PathProfile はバッチ全体の経路構造です。
type PathProfile struct {
	Rooms       []RoomPath
	Transitions []Transition
}

// BuildPathProfile はバッチ内の各レイアウトから経路の要約を作ります。
func BuildPathProfile(rooms []domain.RoomBase) PathProfile {
	n := len(rooms)
	profile := PathProfile{}
	if n == 0 {
		return profile
	}

	for i, r := range rooms {
		rp := RoomPath{
			RoomID:    r.ID,
			StartXPct: i * 100 / n,
			EndXPct:   (i + 1) * 100 / n,
		}
		if r.Layout != nil && len(r.Layout.PathPoints) > 0 {
			h := float64(r.Layout.PixelHeight())
			rp.EntryPct = percent(r.Layout.Entry().Y, h)
			rp.ExitPct = percent(r.Layout.Exit().Y, h)
			rp.Bends = countBends(r.Layout.PathPoints)
		}
		rp.Trajectory = trajectory(rp.EntryPct, rp.ExitPct)
		profile.Rooms = append(profile.Rooms, rp)
	}

	for i := 0; i+1 < n; i++ {
		from, to := profile.Rooms[i], profile.Rooms[i+1]
		profile.Transitions = append(profile.Transitions, Transition{
			From:      i,
			To:        i + 1,
			BoundaryX: from.EndXPct,
			CrossYPct: int(math.Round(float64(from.ExitPct+to.EntryPct) / 2)),
		})
	}
	return profile
}

// Describe は経路の要約をプロンプト用のテキストにします。
func (p PathProfile) Describe() string {
	var sb strings.Builder
	sb.WriteString("## PATH LAYOUT (LEFT TO RIGHT, HEIGHTS AS % FROM TOP)\n")
	for i, r := range p.Rooms {
		sb.WriteString(fmt.Sprintf("- SECTION %d [%s]: spans %d%%-%d%% of the width.\n", i+1, r.RoomID, r.StartXPct, r.EndXPct))
		sb.WriteString(fmt.Sprintf("  - ENTRY: path enters at the left edge of the section at %d%% height.\n", r.EntryPct))
		sb.WriteString(fmt.Sprintf("  - EXIT: path leaves at the right edge of the section at %d%% height.\n", r.ExitPct))
		sb.WriteString(fmt.Sprintf("  - TRAJECTORY: %s, %d bends.\n", r.Trajectory, r.Bends))
	}
	for _, t := range p.Transitions {
		sb.WriteString(fmt.Sprintf("- TRANSITION %d->%d at %d%% width: the path crosses the boundary continuously at %d%% height. NO seam, NO gap.\n",
			t.From+1, t.To+1, t.BoundaryX, t.CrossYPct))
	}
	return sb.String()
}

func percent(v, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(v / total * 100))
}

func trajectory(entry, exit int) string {
	d := exit - entry
	switch {
	case d <= -levelThreshold:
		return "rises toward the exit"
	case d >= levelThreshold:
		return "descends toward the exit"
	default:
		return "stays mostly level"
	}
}

// countBends は経路が横移動と縦移動を切り替えた回数を数えます。
func countBends(points []domain.Position) int {
	bends := 0
	prevVertical := false
	for i := 1; i < len(points); i++ {
		vertical := points[i].X == points[i-1].X
		if i > 1 && vertical != prevVertical {
			bends++
		}
		prevVertical = vertical
	}
	return bends
}
