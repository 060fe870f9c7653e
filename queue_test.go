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

package plaza

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/plazahq/plaza/config"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("an error '%s' occurred when starting miniredis", err)
	}
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})

	cnf, err := config.Fetch()
	assert.NoError(t, err)
	return NewQueue(cnf), mr
}

func TestEnqueueReconcilePayment(t *testing.T) {
	q, mr := newTestQueue(t)

	err := q.EnqueueReconcilePayment(context.Background(), "pay_123", 15*time.Minute)
	assert.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())

	payload, err := q.GetReconcileTask("pay_123")
	assert.NoError(t, err)
	assert.NotNil(t, payload)
	assert.Equal(t, "pay_123", payload.PaymentID)
}

func TestEnqueueReconcilePaymentDedupes(t *testing.T) {
	q, _ := newTestQueue(t)

	err := q.EnqueueReconcilePayment(context.Background(), "pay_dup", 15*time.Minute)
	assert.NoError(t, err)

	// same payment again collapses into the existing task
	err = q.EnqueueReconcilePayment(context.Background(), "pay_dup", 15*time.Minute)
	assert.NoError(t, err)
}

func TestGetReconcileTaskMissing(t *testing.T) {
	q, _ := newTestQueue(t)

	payload, err := q.GetReconcileTask("pay_nope")
	assert.NoError(t, err)
	assert.Nil(t, payload)
}
