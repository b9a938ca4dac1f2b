package messenger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/nftbay/marketplace-engine/internal/config"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type MessageService interface {
	SendMessage(item Item, body []byte) error
	PollMessages(item Item, msgChan chan<- *sqs.Message)
	DeleteMessage(item Item, msg *sqs.Message) error
	GetQueueSize(item Item) (*int, error)
}

type Messenger struct {
	sqsClient *sqs.SQS
	queueUrls *cache.Cache
}

type Item string

var (
	ListingCreated Item = "listing.created"
	ListingUpdated Item = "listing.updated"
	ListingRemoved Item = "listing.removed"
	NftSold        Item = "nft.sold"
	AssetReceived  Item = "asset.received"
)

func (i Item) queue() string {
	name := strings.ReplaceAll(string(i), ".", "-")
	return fmt.Sprintf("%s-%s", config.Get().Aws.QueuePrefix, name)
}

func NewMessenger(sqsClient *sqs.SQS) MessageService {
	return Messenger{
		sqsClient: sqsClient,
		queueUrls: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

func (m Messenger) SendMessage(item Item, body []byte) error {
	queueUrl, err := m.queueUrl(item)
	if err != nil {
		return err
	}

	_, err = m.sqsClient.SendMessage(&sqs.SendMessageInput{
		MessageBody: aws.String(string(body)),
		QueueUrl:    queueUrl,
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("[Queue] Failed to send message")
		return err
	}

	zap.L().With(zap.String("queue", item.queue())).Debug("[Queue] Published message")

	return nil
}

func (m Messenger) PollMessages(item Item, msgChan chan<- *sqs.Message) {
	queueUrl, err := m.queueUrl(item)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("[Queue] Failed to resolve queue")
		return
	}

	for {
		output, err := m.sqsClient.ReceiveMessage(&sqs.ReceiveMessageInput{
			QueueUrl:            queueUrl,
			MaxNumberOfMessages: aws.Int64(10),
			WaitTimeSeconds:     aws.Int64(20),
		})
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("[Queue] Failed to receive messages")
			time.Sleep(5 * time.Second)
			continue
		}

		for _, message := range output.Messages {
			msgChan <- message
		}
	}
}

func (m Messenger) DeleteMessage(item Item, msg *sqs.Message) error {
	queueUrl, err := m.queueUrl(item)
	if err != nil {
		return err
	}

	_, err = m.sqsClient.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      queueUrl,
		ReceiptHandle: msg.ReceiptHandle,
	})

	return err
}

func (m Messenger) GetQueueSize(item Item) (*int, error) {
	queueUrl, err := m.queueUrl(item)
	if err != nil {
		return nil, err
	}

	attrs, err := m.sqsClient.GetQueueAttributes(&sqs.GetQueueAttributesInput{
		QueueUrl:       queueUrl,
		AttributeNames: []*string{aws.String(sqs.QueueAttributeNameApproximateNumberOfMessages)},
	})
	if err != nil {
		return nil, err
	}

	value, ok := attrs.Attributes[sqs.QueueAttributeNameApproximateNumberOfMessages]
	if !ok {
		return nil, fmt.Errorf("queue %s has no size attribute", item.queue())
	}

	size, err := strconv.Atoi(*value)
	if err != nil {
		return nil, err
	}

	return &size, nil
}

func (m Messenger) queueUrl(item Item) (*string, error) {
	if cached, found := m.queueUrls.Get(item.queue()); found {
		return cached.(*string), nil
	}

	output, err := m.sqsClient.GetQueueUrl(&sqs.GetQueueUrlInput{QueueName: aws.String(item.queue())})
	if err != nil {
		return nil, err
	}

	m.queueUrls.Set(item.queue(), output.QueueUrl, cache.NoExpiration)

	return output.QueueUrl, nil
}
