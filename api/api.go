/*
Copyright 2025 Plaza Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/plazahq/plaza"
	"github.com/plazahq/plaza/api/middleware"
	"github.com/plazahq/plaza/config"
)

type Api struct {
	plaza  *plaza.Plaza
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/listings", a.CreateListing)
	router.GET("/listings/:id", a.GetListing)
	router.PUT("/listings/:id", a.SaveListingDraft)
	router.POST("/listings/:id/submit", a.SubmitListing)
	router.POST("/listings/:id/republish", a.RepublishListing)
	router.GET("/owners/:owner_id/listings", a.GetOwnerListings)

	router.POST("/payments/:id/confirm", a.ConfirmPayment)
	router.GET("/payments/:id", a.GetPayment)

	router.POST("/sweep", a.RunSweep)
	return a.router
}

func NewAPI(p *plaza.Plaza) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	r.POST("/webhook", func(c *gin.Context) {
		var payload map[string]interface{}
		err := c.Bind(&payload)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(payload)
		c.JSON(200, "webhook received")
	})

	return &Api{plaza: p, router: r}
}
