package syncer

import (
	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/models"
)

// dependency 条目载荷里的一个前置引用：上报前必须把本地标识
// 换成服务端标识。
type dependency struct {
	localField  string // 载荷里的本地标识字段
	serverField string // 注入服务端标识的字段
	keyPrefix   string // 映射日志键前缀
	optional    bool   // 字段为空时直接跳过
}

// dependenciesFor 各操作类型的前置引用表
func dependenciesFor(kind string) []dependency {
	switch kind {
	case constants.OpKindAddPayment:
		return []dependency{{
			localField: "sale_local_id", serverField: "sale_server_id", keyPrefix: constants.SyncKeySale,
		}}
	case constants.OpKindRedeemCoupon:
		return []dependency{{
			localField: "sale_local_id", serverField: "sale_server_id", keyPrefix: constants.SyncKeySale,
		}}
	case constants.OpKindCreateReturn, constants.OpKindCreateExchange:
		return []dependency{{
			localField: "orig_local_id", serverField: "orig_server_id", keyPrefix: constants.SyncKeySale,
		}}
	case constants.OpKindIssueCredit:
		return []dependency{{
			localField: "return_local_id", serverField: "return_server_id", keyPrefix: constants.SyncKeyReturn, optional: true,
		}}
	case constants.OpKindRedeemCredit:
		return []dependency{
			{localField: "sale_local_id", serverField: "sale_server_id", keyPrefix: constants.SyncKeySale, optional: true},
			{localField: "credit_local_id", serverField: "credit_server_id", keyPrefix: constants.SyncKeyCredit, optional: true},
		}
	default:
		return nil
	}
}

// resolveDependencies 把条目载荷里的本地引用解析为服务端标识。
// 任一前置引用还没有映射即视为未就绪，条目留在队列里下轮再试，
// 不计失败次数。返回的载荷是副本，原条目不被修改。
func (p *Processor) resolveDependencies(item *models.OutboxItem) (models.JSON, bool, error) {
	deps := dependenciesFor(item.Kind)

	payload := make(models.JSON, len(item.Payload)+len(deps))
	for k, v := range item.Payload {
		payload[k] = v
	}
	if len(deps) == 0 {
		return payload, true, nil
	}

	for _, dep := range deps {
		localID, _ := payload[dep.localField].(string)
		if localID == "" {
			if dep.optional {
				continue
			}
			return nil, false, nil
		}

		entry, err := p.syncLogRepo.Get(dep.keyPrefix + localID)
		if err != nil {
			return nil, false, err
		}
		if entry == nil {
			return nil, false, nil
		}
		payload[dep.serverField] = entry.ServerID
	}
	return payload, true, nil
}
