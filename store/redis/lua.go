package redis

const (
	luaPutDataset = `
		-- Atomically replace a dataset's events and extent
		-- KEYS[1] = event sorted set key
		-- KEYS[2] = extent hash key
		-- KEYS[3] = dataset index set key
		-- ARGV[1] = dataset name
		-- ARGV[2] = extent start (RFC3339)
		-- ARGV[3] = extent end (RFC3339)
		-- ARGV[4..N] = score, member pairs
		-- Returns: number of events stored

		redis.call('DEL', KEYS[1], KEYS[2])

		local chunkSize = 256
		local startIdx = 4

		while startIdx <= #ARGV do
			local endIdx = math.min(startIdx + chunkSize - 1, #ARGV)
			local chunk = {}
			for i = startIdx, endIdx do
				table.insert(chunk, ARGV[i])
			end
			redis.call('ZADD', KEYS[1], unpack(chunk))
			startIdx = endIdx + 1
		end

		redis.call('HSET', KEYS[2], 'start', ARGV[2], 'end', ARGV[3])
		redis.call('SADD', KEYS[3], ARGV[1])
		return redis.call('ZCARD', KEYS[1])
		`

	luaDeleteDataset = `
		-- Atomically remove a dataset
		-- KEYS[1] = event sorted set key
		-- KEYS[2] = extent hash key
		-- KEYS[3] = dataset index set key
		-- ARGV[1] = dataset name
		-- Returns: 1 if the dataset existed, 0 otherwise

		local existed = redis.call('SREM', KEYS[3], ARGV[1])
		redis.call('DEL', KEYS[1], KEYS[2])
		return existed
		`
)
