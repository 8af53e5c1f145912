package crewz

// Legacy endpoints used by the quote layer.
const (
	EndpointGetQuote                 = "GetQuote.php"
	EndpointUpdateQuote              = "UpdateQuote.php"
	EndpointUpdateQuoteSkill         = "UpdateQuoteSkill.php"
	EndpointUpdateQuoteEquipment     = "UpdateQuoteEquipment.php"
	EndpointUpdateQuoteWorkPackage   = "UpdateQuoteWorkPackage.php"
	EndpointUpdateQuoteResourceGroup = "UpdateQuoteResourceGroup.php"
	EndpointGetResourceGroups        = "GetResourceGroups.php"
)

// Actions understood by the Update* endpoints.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionRemove = "remove"
)

// ResultSuccess is the only Result value that signals success.
const ResultSuccess = "Success"
