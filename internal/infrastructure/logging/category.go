package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Rooms           Category = "Rooms"
	Membership      Category = "Membership"
	Messages        Category = "Messages"
	EventBus        Category = "EventBus"
	RabbitMQ        Category = "RabbitMQ"
	Mongo           Category = "Mongo"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"
	Subscription    SubCategory = "Subscription"
	Expiry          SubCategory = "Expiry"
	CodeAllocation  SubCategory = "CodeAllocation"
	Arbitration     SubCategory = "Arbitration"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	RoomCode     ExtraKey = "RoomCode"
	UserID       ExtraKey = "UserID"
	RequestIDKey ExtraKey = "JoinRequestID"
	Decision     ExtraKey = "Decision"
	RequestID    ExtraKey = "RequestID"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
)
