package orders

// StatusPending is the only status the intake function ever writes.
const StatusPending = "Pending"

// OrderDateLayout is ISO-8601 in UTC with a fixed number of fractional digits,
// so stored dates sort lexically.
const OrderDateLayout = "2006-01-02T15:04:05.0000000Z"

// Order is the submitted payload. Both fields are optional and nullable, and so
// is every item, which keeps null entries intact when the list is re-serialized.
type Order struct {
	CustomerName *string   `json:"CustomerName"`
	Items        []*string `json:"Items"`
}

// OrderRecord represents the item stored in the Orders DynamoDB table.
type OrderRecord struct {
	OrderID      string  `dynamodbav:"OrderId"`      // PK
	CustomerName *string `dynamodbav:"CustomerName"` // NULL when absent
	Items        string  `dynamodbav:"Items"`        // JSON encoded item list
	Status       string  `dynamodbav:"Status"`
	OrderDate    string  `dynamodbav:"OrderDate"`
}
