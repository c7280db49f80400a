package models

// Forecast is the validated structured output of the extraction stage.
// When IsWeatherForecast is false, AreaAffected and Duration are nil;
// they are never present in malformed shape.
type Forecast struct {
	IsWeatherForecast bool     `json:"is_weather_forecast"`
	AreaAffected      []string `json:"area_affected"`
	Duration          []string `json:"duration"`
}

// Shipment is a read-only operational record owned by the external store.
// It carries two distinct identifiers: ID is the store-native row key
// (rendered as a string outward), ShipmentNum is the business key the
// contact aggregator re-fetches by. BookingNum links to Booking.
// Field tags follow the upstream ERP column names.
type Shipment struct {
	ID                 string `json:"ID"`
	ShipmentNum        string `json:"SHPMT_NUM"`
	BookingNum         string `json:"BKG_NUM"`
	DestCountryCode    string `json:"DEST_COUNTRY_CD"`
	DestCustLocCode    string `json:"DEST_CUST_LOC_CD"`
	ActualDeliveryDate Date   `json:"ACT_DLVY_DT"`
	CustAccountCode    string `json:"CUST_ACCT_CD"`
	CustomerName       string `json:"CUST_NM"`
	Notify1Name        string `json:"NOTIFY_1_NM"`
	Notify2Name        string `json:"NOTIFY_2_NM"`
}

// Booking is a read-only booking record keyed by booking number.
// PONum is stored as text upstream; coerce to int for purchase-order lookup.
type Booking struct {
	BookingNum         string `json:"BKG_NUM"`
	AccountName        string `json:"ACCT_NM"`
	ShipperName        string `json:"SHIPPER_NM"`
	TradingPartnerName string `json:"TRADING_PARTNER_NM"`
	PONum              string `json:"PO_NUM"`
}

// PurchaseOrder is a read-only purchase-order record keyed by PO number.
type PurchaseOrder struct {
	PONum               int    `json:"PO_NUM"`
	DestCustCityName    string `json:"DEST_CUST_CITY_NM"`
	DestCustCountryName string `json:"DEST_CUST_COUNTRY_NM"`
}

// ContactInfo is the per-shipment contact record assembled by the
// aggregator. Shipment-seeded fields are always populated; booking and
// purchase-order fields stay empty strings when that link of the
// shipment -> booking -> purchase-order chain does not resolve. All keys
// are always present in the JSON rendering.
type ContactInfo struct {
	AccountCode        string `json:"account_code"`
	CustomerName       string `json:"customer_name"`
	Country            string `json:"country"`
	Notify1Name        string `json:"notify1_name"`
	Notify2Name        string `json:"notify2_name"`
	AccountName        string `json:"account_name"`
	ShipperName        string `json:"shipper_name"`
	TradingPartnerName string `json:"trading_partner_name"`
	City               string `json:"city"`
	Address            string `json:"address"`
	DestinationCountry string `json:"destination_country"`
}
