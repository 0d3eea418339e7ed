package services

type BusinessService struct {
	*BusinessServiceGenerated
}

type AuthorizationService struct {
	*AuthorizationBusinessServiceGenerated
}
