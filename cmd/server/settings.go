package main

import (
	appintegration "github.com/erp/ordersync/internal/application/integration"
	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/config"
	"github.com/erp/ordersync/internal/infrastructure/netsuite"
)

// netsuiteConfig maps the loaded configuration onto the gateway config
func netsuiteConfig(c config.NetSuiteConfig) *netsuite.Config {
	nc := netsuite.NewConfig(c.AccountID, c.ConsumerKey, c.ConsumerSecret, c.TokenID, c.TokenSecret)
	nc.SignatureMethod = c.SignatureMethod
	nc.BaseURL = c.BaseURL
	nc.TimeoutSeconds = c.TimeoutSeconds
	nc.QueryPageSize = c.QueryPageSize
	nc.QueryMaxPages = c.QueryMaxPages
	nc.BreakerFailureThreshold = c.BreakerFailureThreshold
	nc.BreakerOpenTimeout = c.BreakerOpenTimeout
	return nc
}

// syncSettings maps the loaded configuration onto the sync engine settings
func syncSettings(c config.SyncConfig) appintegration.Settings {
	itemTypes := make([]integration.ItemType, 0, len(c.ItemTypes))
	for _, t := range c.ItemTypes {
		itemTypes = append(itemTypes, integration.ItemType(t))
	}
	return appintegration.Settings{
		EmailQuestionID:       c.EmailQuestionID,
		PONumberQuestionID:    c.PONumberQuestionID,
		DropshipPaymentMethod: c.DropshipPaymentMethod,
		ExternalIDPrefix:      c.ExternalIDPrefix,
		SubsidiaryID:          c.SubsidiaryID,
		DepartmentID:          c.DepartmentID,
		LocationID:            c.LocationID,
		ItemTypes:             itemTypes,
		AutoCreateItems:       c.AutoCreateItems,
		DefaultItemID:         c.DefaultItemID,
		TaxAsLineItem:         c.TaxAsLineItem,
		TaxItemID:             c.TaxItemID,
		ShippingAsLineItem:    c.ShippingAsLineItem,
		ShippingItemID:        c.ShippingItemID,
		ReconciliationMode:    appintegration.ReconciliationMode(c.ReconciliationMode),
		InterOrderDelay:       c.InterOrderDelay,
		LeadStatusID:          c.LeadStatusID,
		CampaignCategoryID:    c.CampaignCategoryID,
	}
}
