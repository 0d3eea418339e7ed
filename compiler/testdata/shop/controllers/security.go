package controllers

import (
	security "example.com/security/controllers"
)

type SecurityController struct {
	*security.SecurityBaseController
}
