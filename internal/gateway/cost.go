package gateway

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/cost"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/protocol"
	"go.uber.org/zap"
)

// CostHandler 费用分摊处理器
type CostHandler struct {
	logger *zap.Logger
}

// NewCostHandler 创建费用分摊处理器
func NewCostHandler(logger *zap.Logger) *CostHandler {
	return &CostHandler{logger: logger}
}

// RegisterRoutes 注册路由
func (h *CostHandler) RegisterRoutes(r chi.Router) {
	r.Post("/cost/split", h.handleSplit)
	r.Post("/cost/promptpay", h.handlePromptPay)
}

// 费用分摊请求
type splitRequest struct {
	Participants []cost.Participant `json:"participants" validate:"required,min=1,dive"`
	CourtFee     cost.CourtFee      `json:"court_fee"`
	Shuttlecock  cost.Shuttlecock   `json:"shuttlecock"`
	Expenses     []cost.Expense     `json:"expenses" validate:"dive"`
}

// PromptPay请求
type promptPayRequest struct {
	Number string  `json:"number" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// PromptPay响应数据
type promptPayData struct {
	Number  string `json:"number"`
	Display string `json:"display"`
	Payload string `json:"payload"`
}

// handleSplit 计算费用分摊
func (h *CostHandler) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := protocol.DecodeRequest(r, &req); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}

	breakdown, err := cost.Calculate(req.Participants, req.CourtFee, req.Shuttlecock, req.Expenses)
	if err != nil {
		h.sendCostError(w, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "计算成功", breakdown)
}

// handlePromptPay 生成收款二维码内容
func (h *CostHandler) handlePromptPay(w http.ResponseWriter, r *http.Request) {
	var req promptPayRequest
	if err := protocol.DecodeRequest(r, &req); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}

	payload, err := cost.Payload(req.Number, req.Amount)
	if err != nil {
		h.sendCostError(w, err)
		return
	}
	number := cost.FormatPhoneNumber(req.Number)
	protocol.SendSuccessResponse(w, http.StatusOK, "生成成功", promptPayData{
		Number:  number,
		Display: cost.DisplayNumber(number),
		Payload: payload,
	})
}

func (h *CostHandler) sendCostError(w http.ResponseWriter, err error) {
	if errors.Is(err, cost.ErrInvalidInput) {
		protocol.SendMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	protocol.SendErrorResponse(w, h.logger, err)
}
