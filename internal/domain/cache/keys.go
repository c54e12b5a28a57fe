package cache

import (
	"fmt"
	"time"
)

// Key formats and TTLs for every entry written by the workflow.

func InventoryCheck(productID string) string    { return "inventory:check:" + productID }
func InventoryReserved(productID string) string { return "inventory:reserved:" + productID }
func InventoryProduct(productID string) string  { return "inventory:product:" + productID }

func RestockNotification(productID string) string { return "restock:notification:" + productID }

const RestockNotificationCount = "restock:notifications:count"

func AnalyticsInventory(productID string) string { return "analytics:inventory:" + productID }
func AnalyticsDaily(date string) string          { return "analytics:daily:" + date }

func SupplierNotification(productID string, ts int64) string {
	return fmt.Sprintf("supplier:notification:%s:%d", productID, ts)
}
func SupplierHistory(email string) string { return "supplier:history:" + email }

func Order(orderID string) string           { return "order:" + orderID }
func CustomerOrders(customer string) string { return "customer:orders:" + customer }

func EmailNotification(orderID string) string { return "notification:email:" + orderID }
func SMSNotification(orderID string) string   { return "notification:sms:" + orderID }

func AuditOrder(orderID string, ts int64) string {
	return fmt.Sprintf("audit:order:%s:%d", orderID, ts)
}

func FraudCheck(orderID string) string   { return "fraud:check:" + orderID }
func FraudHistory(orderID string) string { return "fraud:history:" + orderID + ":count" }
func RiskMethod(method string) string    { return "risk:method:" + method }
func RiskScore(orderID string) string    { return "risk:score:" + orderID }

const (
	Day = 24 * time.Hour

	TTLCheckNotFound     = 5 * time.Minute
	TTLCheckInsufficient = 2 * time.Minute
	TTLReserved          = 30 * time.Minute
	TTLProduct           = 10 * time.Minute

	TTLRestock         = 7 * Day
	TTLAnalytics       = 6 * time.Hour
	TTLAnalyticsDaily  = 30 * Day
	TTLSupplier        = 7 * Day
	TTLSupplierHistory = 90 * Day

	TTLOrder          = Day
	TTLCustomerOrders = 30 * Day

	TTLNotification = 7 * Day
	TTLAudit        = 30 * Day

	TTLFraudCheck   = Day
	TTLFraudHistory = 30 * Day
	TTLRiskMethod   = Day
	TTLRiskScore    = Day
)

// Negative verdict values stored under InventoryCheck.
const (
	VerdictNotFound     = "NOT_FOUND"
	VerdictInsufficient = "INSUFFICIENT"
)
