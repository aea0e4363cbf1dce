// split.go

package cost

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidInput 费用输入不合法
var ErrInvalidInput = errors.New("无效的费用输入")

// Participant 参与分摊的球员及其打球时长
type Participant struct {
	Name  string  `json:"name" validate:"required"`
	Hours float64 `json:"hours" validate:"gte=0"`
}

// CourtFee 场地费
type CourtFee struct {
	HourlyRate float64 `json:"hourly_rate" validate:"gte=0"`
	Hours      float64 `json:"hours" validate:"gte=0"`
}

// Total 场地费总额
func (c CourtFee) Total() float64 {
	return c.HourlyRate * c.Hours
}

// Shuttlecock 羽毛球用量
type Shuttlecock struct {
	Quantity      int     `json:"quantity" validate:"gte=0"`
	PricePerPiece float64 `json:"price_per_piece" validate:"gte=0"`
}

// Total 用球总额
func (s Shuttlecock) Total() float64 {
	return float64(s.Quantity) * s.PricePerPiece
}

// Expense 额外费用
//
// AssignedTo 为空时所有人承担；Shared 为 true 时在承担者之间均分，否则每人各付全额。
type Expense struct {
	ID         string   `json:"id"`
	Name       string   `json:"name" validate:"required"`
	Amount     float64  `json:"amount" validate:"gte=0"`
	AssignedTo []string `json:"assigned_to"`
	Shared     bool     `json:"shared"`
}

// PlayerCost 单个球员应付金额
type PlayerCost struct {
	Name           string  `json:"name"`
	Hours          float64 `json:"hours"`
	SharedCost     float64 `json:"shared_cost"`
	CustomExpenses float64 `json:"custom_expenses"`
	Total          float64 `json:"total"`
}

// Breakdown 费用明细
type Breakdown struct {
	Players          []PlayerCost `json:"players"`
	CourtTotal       float64      `json:"court_total"`
	ShuttlecockTotal float64      `json:"shuttlecock_total"`
	CustomTotal      float64      `json:"custom_total"`
	TotalCost        float64      `json:"total_cost"`
	AllEqual         bool         `json:"all_equal"`
}

// Calculate 计算每名球员应付金额
//
// 场地费按打球时长比例分摊，所有人时长为 0 时平均分摊；用球费用平均分摊。
func Calculate(participants []Participant, court CourtFee, shuttle Shuttlecock, expenses []Expense) (Breakdown, error) {
	if err := validateInput(participants, court, shuttle, expenses); err != nil {
		return Breakdown{}, err
	}

	n := float64(len(participants))
	totalHours := lo.SumBy(participants, func(p Participant) float64 { return p.Hours })
	shuttlePerPlayer := shuttle.Total() / n

	costs := make([]PlayerCost, 0, len(participants))
	for _, p := range participants {
		courtShare := court.Total() / n
		if totalHours > 0 {
			courtShare = court.Total() * p.Hours / totalHours
		}
		custom := expenseShare(p.Name, len(participants), expenses)
		shared := courtShare + shuttlePerPlayer

		costs = append(costs, PlayerCost{
			Name:           p.Name,
			Hours:          p.Hours,
			SharedCost:     round2(shared),
			CustomExpenses: round2(custom),
			Total:          round2(shared + custom),
		})
	}

	customTotal := TotalCustomExpenses(expenses, len(participants))
	return Breakdown{
		Players:          costs,
		CourtTotal:       round2(court.Total()),
		ShuttlecockTotal: round2(shuttle.Total()),
		CustomTotal:      round2(customTotal),
		TotalCost:        round2(court.Total() + shuttle.Total() + customTotal),
		AllEqual:         AllPlayersPaySame(costs),
	}, nil
}

// expenseShare 某名球员承担的额外费用
func expenseShare(name string, players int, expenses []Expense) float64 {
	total := 0.0
	for _, e := range expenses {
		if len(e.AssignedTo) > 0 {
			if !lo.Contains(e.AssignedTo, name) {
				continue
			}
			if e.Shared {
				total += e.Amount / float64(len(e.AssignedTo))
			} else {
				total += e.Amount
			}
			continue
		}
		if e.Shared {
			total += e.Amount / float64(players)
		} else {
			total += e.Amount
		}
	}
	return total
}

// TotalCustomExpenses 额外费用总额，不均分的费用按承担人数计
func TotalCustomExpenses(expenses []Expense, players int) float64 {
	total := 0.0
	for _, e := range expenses {
		switch {
		case e.Shared:
			total += e.Amount
		case len(e.AssignedTo) > 0:
			total += e.Amount * float64(len(e.AssignedTo))
		default:
			total += e.Amount * float64(players)
		}
	}
	return total
}

// AllPlayersPaySame 所有人金额相差不超过一分
func AllPlayersPaySame(costs []PlayerCost) bool {
	if len(costs) <= 1 {
		return true
	}
	for _, c := range costs[1:] {
		if math.Abs(c.Total-costs[0].Total) >= 0.01 {
			return false
		}
	}
	return true
}

func validateInput(participants []Participant, court CourtFee, shuttle Shuttlecock, expenses []Expense) error {
	if len(participants) == 0 {
		return fmt.Errorf("%w: 至少需要一名球员", ErrInvalidInput)
	}
	if court.HourlyRate < 0 || court.Hours < 0 || shuttle.Quantity < 0 || shuttle.PricePerPiece < 0 {
		return fmt.Errorf("%w: 金额与数量不能为负数", ErrInvalidInput)
	}

	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if key == "" {
			return fmt.Errorf("%w: 球员名不能为空", ErrInvalidInput)
		}
		if seen[key] {
			return fmt.Errorf("%w: 球员 %s 重复", ErrInvalidInput, p.Name)
		}
		if p.Hours < 0 {
			return fmt.Errorf("%w: 球员 %s 时长为负数", ErrInvalidInput, p.Name)
		}
		seen[key] = true
	}

	names := lo.Map(participants, func(p Participant, _ int) string { return p.Name })
	for _, e := range expenses {
		if e.Amount < 0 {
			return fmt.Errorf("%w: 费用 %s 为负数", ErrInvalidInput, e.Name)
		}
		for _, assignee := range e.AssignedTo {
			if !lo.Contains(names, assignee) {
				return fmt.Errorf("%w: 费用 %s 指定的球员 %s 不存在", ErrInvalidInput, e.Name, assignee)
			}
		}
		if len(lo.Uniq(e.AssignedTo)) != len(e.AssignedTo) {
			return fmt.Errorf("%w: 费用 %s 重复指定球员", ErrInvalidInput, e.Name)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
