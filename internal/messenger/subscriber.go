package messenger

import (
	"encoding/json"

	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/nftbay/marketplace-engine/internal/marketplace"
	"go.uber.org/zap"
)

// Subscriber consumes pushed-transfer notifications from the registry queue
// and acknowledges each one through the engine.
type Subscriber interface {
	Run()
}

type receiptSubscriber struct {
	messenger MessageService
	engine    marketplace.Engine
}

type assetReceipt struct {
	Operator string `json:"operator"`
	From     string `json:"from"`
	AssetId  string `json:"assetId"`
	Data     []byte `json:"data"`
}

func NewReceiptSubscriber(messengerService MessageService, engine marketplace.Engine) Subscriber {
	return receiptSubscriber{messenger: messengerService, engine: engine}
}

// Run blocks until the message channel closes; callers run it in a goroutine.
func (s receiptSubscriber) Run() {
	msgChan := make(chan *sqs.Message, 10)
	go s.messenger.PollMessages(AssetReceived, msgChan)

	zap.L().With(zap.String("queue", string(AssetReceived))).Info("[Queue] Receipt subscriber started")

	for msg := range msgChan {
		s.handle(msg)
	}
}

func (s receiptSubscriber) handle(msg *sqs.Message) {
	var receipt assetReceipt
	if err := json.Unmarshal([]byte(*msg.Body), &receipt); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to decode asset receipt")
	} else {
		token := s.engine.AcknowledgeReceipt(receipt.Operator, receipt.From, receipt.AssetId, receipt.Data)
		zap.L().With(
			zap.String("assetId", receipt.AssetId),
			zap.String("token", token),
		).Debug("[Queue] Asset receipt acknowledged")
	}

	// Undecodable messages are deleted too; redelivery would not fix them.
	if err := s.messenger.DeleteMessage(AssetReceived, msg); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to delete message")
	}
}
