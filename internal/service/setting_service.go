package service

import (
	"encoding/json"

	"github.com/shouyin-pos/internal/config"
	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/repository"
	"github.com/shouyin-pos/internal/tax"

	"github.com/shopspring/decimal"
)

// SettingService 本地配置服务。服务端下发的配置落在 settings 表里
// 作为 last-known-good，读取失败时回退到文件配置，保证离线可结算。
type SettingService struct {
	settingRepo repository.SettingRepository
	fileTaxCfg  config.TaxConfig
}

// NewSettingService 创建配置服务
func NewSettingService(settingRepo repository.SettingRepository, fileTaxCfg config.TaxConfig) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		fileTaxCfg:  fileTaxCfg,
	}
}

// TaxConfig 当前生效的税费配置。优先取服务端最近一次下发的版本，
// 不存在或解析失败时使用文件配置兜底。
func (s *SettingService) TaxConfig() tax.Config {
	setting, err := s.settingRepo.GetByKey(constants.SettingKeyTaxConfig)
	if err == nil && setting != nil && setting.Value != "" {
		var cfg tax.Config
		parseErr := json.Unmarshal([]byte(setting.Value), &cfg)
		if parseErr == nil {
			return cfg
		}
		logger.Warnw("tax_config_setting_invalid", "error", parseErr)
	}
	return s.fileTaxConfig()
}

// StoreSetting 保存服务端下发的单个配置项
func (s *SettingService) StoreSetting(key, value string) error {
	if key == "" {
		return nil
	}
	_, err := s.settingRepo.Upsert(key, value)
	return err
}

// StoreAll 批量保存服务端下发的配置
func (s *SettingService) StoreAll(settings map[string]string) error {
	for key, value := range settings {
		if err := s.StoreSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}

// fileTaxConfig 从文件配置构造税费配置
func (s *SettingService) fileTaxConfig() tax.Config {
	defaultRate, err := decimal.NewFromString(s.fileTaxCfg.DefaultRate)
	if err != nil {
		defaultRate = decimal.Zero
	}
	increment := decimal.Zero
	if s.fileTaxCfg.CashRounding.Increment != "" {
		if parsed, err := decimal.NewFromString(s.fileTaxCfg.CashRounding.Increment); err == nil {
			increment = parsed
		}
	}
	return tax.Config{
		PriceMode:        s.fileTaxCfg.PriceMode,
		DefaultRate:      defaultRate,
		Precision:        int32(s.fileTaxCfg.Precision),
		RoundingStrategy: s.fileTaxCfg.RoundingStrategy,
		ReceiptRounding:  s.fileTaxCfg.ReceiptRounding,
		CashRounding: tax.CashRounding{
			Enabled:   s.fileTaxCfg.CashRounding.Enabled,
			Increment: increment,
		},
	}
}
