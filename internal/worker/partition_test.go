package worker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTenantQueue_Deterministic(t *testing.T) {
	teamID := uuid.New()

	q1 := TenantQueue(QueueCritical, teamID)
	q2 := TenantQueue(QueueCritical, teamID)
	assert.Equal(t, q1, q2)
}

func TestTenantQueue_DifferentTeamsCanShareABucketButNeverCross(t *testing.T) {
	// Two distinct teams may land in the same bucket (hashing isn't
	// injective); what matters is that a given team always maps to the
	// same queue name.
	for i := 0; i < 50; i++ {
		teamID := uuid.New()
		q := TenantQueue(QueueDefault, teamID)
		assert.Contains(t, AllTenantQueues(QueueDefault, 1), q)
	}
}

func TestAllTenantQueues_CountsMatchBucketSize(t *testing.T) {
	queues := AllTenantQueues(QueueLow, 2)
	assert.Len(t, queues, tenantQueueBuckets)
	for name, weight := range queues {
		assert.Equal(t, 2, weight)
		assert.Contains(t, name, QueueLow+"-")
	}
}
