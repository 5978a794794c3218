package constants

// 离线操作类型常量（发件箱条目的封闭集合）
const (
	OpKindCreateSale     = "create_sale"
	OpKindAddPayment     = "add_payment"
	OpKindCreateReturn   = "create_return"
	OpKindCreateExchange = "create_exchange"
	OpKindRedeemCoupon   = "redeem_coupon"
	OpKindIssueCredit    = "issue_credit"
	OpKindRedeemCredit   = "redeem_credit"
)

// 发件箱条目状态常量
const (
	OutboxStatusQueued   = "queued"
	OutboxStatusRejected = "rejected"
	OutboxStatusVoided   = "voided"
)

// 本地单据类型常量
const (
	DraftKindSale     = "sale"
	DraftKindReturn   = "return"
	DraftKindExchange = "exchange"
)

// 本地单据状态常量
const (
	DraftStatusCommitted = "committed"
	DraftStatusSynced    = "synced"
	DraftStatusRejected  = "rejected"
	DraftStatusVoided    = "voided"
)

// 折扣规则类型常量
const (
	DiscountTypePercent   = "percent"
	DiscountTypeAmount    = "amount"
	DiscountTypeBogo      = "bogo"
	DiscountTypeThreshold = "threshold"
)

// 折扣作用层级常量
const (
	DiscountLevelOrder = "order"
	DiscountLevelLine  = "line"
)

// 折扣来源常量
const (
	DiscountSourcePromotion = "promotion"
	DiscountSourceCoupon    = "coupon"
	DiscountSourceManual    = "manual"
)

// 叠加策略常量
const (
	StackingPolicyNone        = "none"
	StackingPolicyPromosOnly  = "promos_only"
	StackingPolicyCouponsOnly = "coupons_only"
	StackingPolicyAllowBoth   = "allow_both"
)

// 计价模式常量
const (
	PriceModeTaxInclusive = "tax_inclusive"
	PriceModeTaxExclusive = "tax_exclusive"
)

// 取整策略常量
const (
	RoundingHalfUp  = "half_up"
	RoundingBankers = "bankers"
	RoundingNone    = "none"
)

// 支付方式常量
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodCredit = "store_credit"
)

// 销售渠道常量
const (
	ChannelStore  = "store"
	ChannelOnline = "online"
)

// 同步映射键前缀常量（拼接本地标识使用，例如 sale:<localId>）
const (
	SyncKeySale     = "sale:"
	SyncKeyReturn   = "return:"
	SyncKeyExchange = "exchange:"
	SyncKeyPayment  = "payment:"
	SyncKeyCoupon   = "coupon:"
	SyncKeyCredit   = "credit:"
)

// 设置键常量（本地 last-known-good 配置）
const (
	SettingKeyTaxConfig     = "tax_config"
	SettingKeyCurrency      = "currency_config"
	SettingKeyPaymentPolicy = "payment_policy"
)

// 队列与任务常量
const (
	QueueDefault        = "default"
	TaskSnapshotRefresh = "snapshot:refresh"
	TaskRuleRefresh     = "rules:refresh"
	TaskSyncKick        = "sync:kick"
)
