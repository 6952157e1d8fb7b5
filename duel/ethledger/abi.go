package ethledger

// duelABI is the part of the duel contract the game calls.
const duelABI = `[
	{"type":"function","name":"createDuel","stateMutability":"nonpayable",
	 "inputs":[{"name":"stake","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"joinDuel","stateMutability":"nonpayable",
	 "inputs":[{"name":"duelId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"submitWinner","stateMutability":"nonpayable",
	 "inputs":[{"name":"duelId","type":"uint256"},{"name":"winner","type":"address"}],"outputs":[]},
	{"type":"function","name":"duels","stateMutability":"view",
	 "inputs":[{"name":"","type":"uint256"}],
	 "outputs":[
		{"name":"player1","type":"address"},
		{"name":"player2","type":"address"},
		{"name":"stake","type":"uint256"},
		{"name":"winner","type":"address"},
		{"name":"state","type":"uint8"}]},
	{"type":"function","name":"duelCounter","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// tokenABI is the ERC-20 subset used for stakes.
const tokenABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`
