package worker

import (
	"fmt"

	"github.com/google/uuid"
)

// tenantQueueBuckets bounds the number of distinct asynq queues a single
// priority class is split into. asynq requires its queue set to be known
// at server startup (Config.Queues), so true one-queue-per-tenant is not
// representable; instead each team is hashed into a fixed bucket, which
// keeps the "a worker for team T only ever dequeues team T's work" property
// structural while keeping the queue list finite.
const tenantQueueBuckets = 16

// TenantQueue returns the asynq queue name for a given priority class and
// team, e.g. "critical-a3". Workers and enqueuers must agree on this
// function to land in the same partition.
func TenantQueue(priority string, teamID uuid.UUID) string {
	bucket := int(teamID[0]) % tenantQueueBuckets
	return fmt.Sprintf("%s-%x", priority, bucket)
}

// AllTenantQueues enumerates every partitioned queue name for a priority
// class, for use in asynq.Config.Queues.
func AllTenantQueues(priority string, weight int) map[string]int {
	queues := make(map[string]int, tenantQueueBuckets)
	for b := 0; b < tenantQueueBuckets; b++ {
		queues[fmt.Sprintf("%s-%x", priority, b)] = weight
	}
	return queues
}
